package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/vglazkov/euro-oracle/internal/domain/userlog"
	qb "github.com/vglazkov/euro-oracle/internal/platform/querybuilder"
)

type userlogInsertModel struct {
	UserID   int64  `db:"user_id"`
	UserName string `db:"user_name"`
	Request  string `db:"request"`
}

type UserlogRepository struct {
	db *DB
}

func NewUserlogRepository(db *DB) *UserlogRepository {
	return &UserlogRepository{db: db}
}

func (r *UserlogRepository) Insert(ctx context.Context, e *userlog.Entry) error {
	insertModel := userlogInsertModel{
		UserID:   e.UserID,
		UserName: e.UserName,
		Request:  e.Request,
	}
	query, args, err := qb.InsertModel("userlog", insertModel, "RETURNING id")
	if err != nil {
		return fmt.Errorf("build insert userlog query: %w", err)
	}
	if err := sqlx.GetContext(ctx, r.db.ext(ctx), &e.ID, query, args...); err != nil {
		return fmt.Errorf("insert userlog: %w", err)
	}
	return nil
}

func (r *UserlogRepository) SetResponse(ctx context.Context, id int64, response string) error {
	query, args, err := qb.Update("userlog").
		Set("response", response).
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build set userlog response query: %w", err)
	}
	if _, err := r.db.ext(ctx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set userlog response: %w", err)
	}
	return nil
}
