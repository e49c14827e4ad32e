package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/vglazkov/euro-oracle/internal/domain/team"
	qb "github.com/vglazkov/euro-oracle/internal/platform/querybuilder"
)

type teamTableModel struct {
	ID        int64  `db:"id"`
	APIID     int64  `db:"api_id"`
	Name      string `db:"name"`
	GroupName string `db:"group_name"`
	Active    bool   `db:"active"`
}

type teamInsertModel struct {
	APIID     int64  `db:"api_id"`
	Name      string `db:"name"`
	GroupName string `db:"group_name"`
	Active    bool   `db:"active"`
}

func (row teamTableModel) toDomain() team.Team {
	return team.Team{
		ID:     row.ID,
		APIID:  row.APIID,
		Name:   row.Name,
		Group:  row.GroupName,
		Active: row.Active,
	}
}

type TeamRepository struct {
	db *DB
}

func NewTeamRepository(db *DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) Upsert(ctx context.Context, t *team.Team) error {
	insertModel := teamInsertModel{
		APIID:     t.APIID,
		Name:      t.Name,
		GroupName: t.Group,
		Active:    t.Active,
	}
	// Name and group are kept from the first sighting; the conflict
	// arm only exists to make RETURNING yield the existing row's id.
	query, args, err := qb.InsertModel("teams", insertModel,
		`ON CONFLICT (api_id) DO UPDATE SET api_id = EXCLUDED.api_id
		RETURNING id`)
	if err != nil {
		return fmt.Errorf("build upsert team query: %w", err)
	}
	if err := sqlx.GetContext(ctx, r.db.ext(ctx), &t.ID, query, args...); err != nil {
		return fmt.Errorf("upsert team: %w", err)
	}
	return nil
}

func (r *TeamRepository) GetByAPIID(ctx context.Context, apiID int64) (team.Team, bool, error) {
	query, args, err := qb.Select("id", "api_id", "name", "group_name", "active").
		From("teams").
		Where(qb.Eq("api_id", apiID)).
		ToSQL()
	if err != nil {
		return team.Team{}, false, fmt.Errorf("build get team by api id query: %w", err)
	}

	var row teamTableModel
	if err := sqlx.GetContext(ctx, r.db.ext(ctx), &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("get team by api id: %w", err)
	}
	return row.toDomain(), true, nil
}
