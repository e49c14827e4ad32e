package prediction

import (
	"context"
	"time"

	"github.com/vglazkov/euro-oracle/internal/domain/match"
)

// Repository persists predictions and aggregates points.
type Repository interface {
	Upsert(ctx context.Context, p *Prediction) error
	GetByUserAndMatch(ctx context.Context, userID, matchID int64) (Prediction, bool, error)
	ListByMatch(ctx context.Context, matchID int64) ([]WithChat, error)
	ListByUser(ctx context.Context, userID int64) ([]WithMatch, error)
	NextUnpredictedMatch(ctx context.Context, userID int64, now time.Time) (match.WithTeams, bool, error)
	SetPoints(ctx context.Context, id int64, points int) error
	TotalPoints(ctx context.Context, userID int64) (int, error)
	Leaderboard(ctx context.Context, limit int) ([]Standing, error)
}
