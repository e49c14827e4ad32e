package match

import (
	"context"
	"time"
)

// Repository persists fixtures. GetByAPIIDForUpdate takes a row lock
// so a sync run can process results without racing a concurrent run.
type Repository interface {
	Upsert(ctx context.Context, m *Match) error
	GetByID(ctx context.Context, id int64) (WithTeams, bool, error)
	GetByAPIIDForUpdate(ctx context.Context, apiID int64) (Match, bool, error)
	ListAll(ctx context.Context) ([]WithTeams, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]WithTeams, error)
	ListByGroup(ctx context.Context, group string) ([]WithTeams, error)
	ListByStage(ctx context.Context, stage Stage) ([]WithTeams, error)
	MarkProcessed(ctx context.Context, id int64) error
}
