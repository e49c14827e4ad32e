package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vglazkov/euro-oracle/internal/domain/match"
	qb "github.com/vglazkov/euro-oracle/internal/platform/querybuilder"
)

type MatchRepository struct {
	db *DB
}

func NewMatchRepository(db *DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) Upsert(ctx context.Context, m *match.Match) error {
	insertModel := matchInsertModel{
		APIID:          m.APIID,
		SeasonID:       m.SeasonID,
		Stage:          int(m.Stage),
		GroupName:      m.Group,
		StartAt:        m.StartAt,
		Venue:          m.Venue,
		Status:         int(m.Status),
		HomeTeamID:     m.HomeTeamID,
		AwayTeamID:     m.AwayTeamID,
		HomeScore90:    m.HomeScore90,
		AwayScore90:    m.AwayScore90,
		HomeScoreTotal: m.HomeScoreTotal,
		AwayScoreTotal: m.AwayScoreTotal,
	}
	query, args, err := qb.InsertModel("matches", insertModel,
		`ON CONFLICT (api_id) DO UPDATE SET
			start_at = EXCLUDED.start_at,
			status = EXCLUDED.status,
			home_team_id = EXCLUDED.home_team_id,
			away_team_id = EXCLUDED.away_team_id,
			home_score_90 = EXCLUDED.home_score_90,
			away_score_90 = EXCLUDED.away_score_90,
			home_score_total = EXCLUDED.home_score_total,
			away_score_total = EXCLUDED.away_score_total,
			updated_at = now()
		RETURNING id`)
	if err != nil {
		return fmt.Errorf("build upsert match query: %w", err)
	}
	if err := sqlx.GetContext(ctx, r.db.ext(ctx), &m.ID, query, args...); err != nil {
		return fmt.Errorf("upsert match: %w", err)
	}
	return nil
}

func (r *MatchRepository) GetByID(ctx context.Context, id int64) (match.WithTeams, bool, error) {
	query, args, err := r.viewSelect().Where(qb.Eq("m.id", id)).ToSQL()
	if err != nil {
		return match.WithTeams{}, false, fmt.Errorf("build get match by id query: %w", err)
	}

	var row matchViewModel
	if err := sqlx.GetContext(ctx, r.db.ext(ctx), &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.WithTeams{}, false, nil
		}
		return match.WithTeams{}, false, fmt.Errorf("get match by id: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *MatchRepository) GetByAPIIDForUpdate(ctx context.Context, apiID int64) (match.Match, bool, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(qb.Eq("api_id", apiID)).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build lock match query: %w", err)
	}
	query += " FOR UPDATE"

	var row matchTableModel
	if err := sqlx.GetContext(ctx, r.db.ext(ctx), &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("lock match by api id: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *MatchRepository) ListAll(ctx context.Context) ([]match.WithTeams, error) {
	query, args, err := r.viewSelect().ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list matches query: %w", err)
	}
	return r.selectView(ctx, query, args, "list matches")
}

func (r *MatchRepository) ListBetween(ctx context.Context, from, to time.Time) ([]match.WithTeams, error) {
	query, args, err := r.viewSelect().
		Where(qb.Expr("m.start_at >= ? AND m.start_at < ?", from, to)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list matches between query: %w", err)
	}
	return r.selectView(ctx, query, args, "list matches between")
}

func (r *MatchRepository) ListByGroup(ctx context.Context, group string) ([]match.WithTeams, error) {
	query, args, err := r.viewSelect().Where(qb.Eq("m.group_name", group)).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list matches by group query: %w", err)
	}
	return r.selectView(ctx, query, args, "list matches by group")
}

func (r *MatchRepository) ListByStage(ctx context.Context, stage match.Stage) ([]match.WithTeams, error) {
	query, args, err := r.viewSelect().Where(qb.Eq("m.stage", int(stage))).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list matches by stage query: %w", err)
	}
	return r.selectView(ctx, query, args, "list matches by stage")
}

func (r *MatchRepository) MarkProcessed(ctx context.Context, id int64) error {
	query, args, err := qb.Update("matches").
		Set("processed", true).
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build mark match processed query: %w", err)
	}
	if _, err := r.db.ext(ctx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark match processed: %w", err)
	}
	return nil
}

func (r *MatchRepository) viewSelect() *qb.SelectBuilder {
	return qb.Select(matchViewColumns...).
		From("matches m").
		Join("teams h ON h.id = m.home_team_id").
		Join("teams a ON a.id = m.away_team_id").
		OrderBy("m.start_at ASC", "m.id ASC")
}

func (r *MatchRepository) selectView(ctx context.Context, query string, args []any, op string) ([]match.WithTeams, error) {
	var rows []matchViewModel
	if err := sqlx.SelectContext(ctx, r.db.ext(ctx), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := make([]match.WithTeams, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
