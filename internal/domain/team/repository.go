package team

import "context"

// Repository persists teams discovered during fixture sync.
type Repository interface {
	Upsert(ctx context.Context, t *Team) error
	GetByAPIID(ctx context.Context, apiID int64) (Team, bool, error)
}
