package prediction

import (
	"time"

	"github.com/vglazkov/euro-oracle/internal/domain/match"
)

// Prediction is one user's guess at a match's regular-time score.
// Points stays nil until the match result has been processed; a wrong
// guess is written as an explicit zero so processed and unprocessed
// predictions stay distinguishable.
type Prediction struct {
	ID        int64
	UserID    int64
	MatchID   int64
	HomeScore int
	AwayScore int
	Points    *int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WithChat is a prediction joined with the owning user's chat id and
// notification preference, used when scoring a finished match.
type WithChat struct {
	Prediction
	ChatID int64
	Notify bool
}

// WithMatch is a prediction joined with its fixture, used when listing
// a user's predictions.
type WithMatch struct {
	Prediction
	Match match.WithTeams
}

// Standing is one leaderboard row.
type Standing struct {
	UserID int64
	Name   string
	Points int
}
