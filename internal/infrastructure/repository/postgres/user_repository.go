package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vglazkov/euro-oracle/internal/domain/user"
	qb "github.com/vglazkov/euro-oracle/internal/platform/querybuilder"
)

type userTableModel struct {
	ID               int64     `db:"id"`
	ChatID           int64     `db:"chat_id"`
	FirstName        string    `db:"first_name"`
	UserName         string    `db:"user_name"`
	ChatStage        int       `db:"chat_stage"`
	ChatStagePayload string    `db:"chat_stage_payload"`
	Notify           bool      `db:"notify"`
	CreatedAt        time.Time `db:"created_at"`
}

type userInsertModel struct {
	ChatID    int64  `db:"chat_id"`
	FirstName string `db:"first_name"`
	UserName  string `db:"user_name"`
	Notify    bool   `db:"notify"`
}

func (row userTableModel) toDomain() user.User {
	return user.User{
		ID:               row.ID,
		ChatID:           row.ChatID,
		FirstName:        row.FirstName,
		UserName:         row.UserName,
		ChatStage:        user.ChatStage(row.ChatStage),
		ChatStagePayload: row.ChatStagePayload,
		Notify:           row.Notify,
		CreatedAt:        row.CreatedAt,
	}
}

var userColumns = []string{
	"id", "chat_id", "first_name", "user_name",
	"chat_stage", "chat_stage_payload", "notify", "created_at",
}

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByChatID(ctx context.Context, chatID int64) (user.User, bool, error) {
	query, args, err := qb.Select(userColumns...).
		From("users").
		Where(qb.Eq("chat_id", chatID)).
		ToSQL()
	if err != nil {
		return user.User{}, false, fmt.Errorf("build get user by chat id query: %w", err)
	}

	var row userTableModel
	if err := sqlx.GetContext(ctx, r.db.ext(ctx), &row, query, args...); err != nil {
		if isNotFound(err) {
			return user.User{}, false, nil
		}
		return user.User{}, false, fmt.Errorf("get user by chat id: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *UserRepository) Upsert(ctx context.Context, u *user.User) error {
	insertModel := userInsertModel{
		ChatID:    u.ChatID,
		FirstName: u.FirstName,
		UserName:  u.UserName,
		Notify:    u.Notify,
	}
	query, args, err := qb.InsertModel("users", insertModel,
		`ON CONFLICT (chat_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			user_name = EXCLUDED.user_name
		RETURNING id`)
	if err != nil {
		return fmt.Errorf("build upsert user query: %w", err)
	}
	if err := sqlx.GetContext(ctx, r.db.ext(ctx), &u.ID, query, args...); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (r *UserRepository) SetChatStage(ctx context.Context, chatID int64, stage user.ChatStage, payload string) error {
	query, args, err := qb.Update("users").
		Set("chat_stage", int(stage)).
		Set("chat_stage_payload", payload).
		Where(qb.Eq("chat_id", chatID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build set chat stage query: %w", err)
	}
	if _, err := r.db.ext(ctx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set chat stage: %w", err)
	}
	return nil
}

func (r *UserRepository) SetNotify(ctx context.Context, chatID int64, notify bool) error {
	query, args, err := qb.Update("users").
		Set("notify", notify).
		Where(qb.Eq("chat_id", chatID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build set notify query: %w", err)
	}
	if _, err := r.db.ext(ctx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set notify: %w", err)
	}
	return nil
}
