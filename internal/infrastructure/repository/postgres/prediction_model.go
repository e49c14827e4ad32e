package postgres

import (
	"time"

	"github.com/vglazkov/euro-oracle/internal/domain/prediction"
)

type predictionTableModel struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	MatchID   int64     `db:"match_id"`
	HomeScore int       `db:"home_score"`
	AwayScore int       `db:"away_score"`
	Points    *int      `db:"points"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type predictionInsertModel struct {
	UserID    int64 `db:"user_id"`
	MatchID   int64 `db:"match_id"`
	HomeScore int   `db:"home_score"`
	AwayScore int   `db:"away_score"`
}

// predictionChatModel joins the owning user's delivery fields, used
// when a finished match is scored.
type predictionChatModel struct {
	predictionTableModel
	ChatID int64 `db:"chat_id"`
	Notify bool  `db:"notify"`
}

// predictionMatchModel nests the fixture view under a "match" column
// prefix so one row scan fills both sides of the join.
type predictionMatchModel struct {
	predictionTableModel
	Match matchViewModel `db:"match"`
}

type standingModel struct {
	UserID    int64  `db:"user_id"`
	FirstName string `db:"first_name"`
	UserName  string `db:"user_name"`
	Points    int    `db:"points"`
}

var predictionColumns = []string{
	"p.id", "p.user_id", "p.match_id", "p.home_score", "p.away_score",
	"p.points", "p.created_at", "p.updated_at",
}

var predictionMatchColumns = append(append([]string{}, predictionColumns...),
	`m.id AS "match.id"`,
	`m.api_id AS "match.api_id"`,
	`m.season_id AS "match.season_id"`,
	`m.stage AS "match.stage"`,
	`m.group_name AS "match.group_name"`,
	`m.start_at AS "match.start_at"`,
	`m.venue AS "match.venue"`,
	`m.status AS "match.status"`,
	`m.home_team_id AS "match.home_team_id"`,
	`m.away_team_id AS "match.away_team_id"`,
	`m.home_score_90 AS "match.home_score_90"`,
	`m.away_score_90 AS "match.away_score_90"`,
	`m.home_score_total AS "match.home_score_total"`,
	`m.away_score_total AS "match.away_score_total"`,
	`m.processed AS "match.processed"`,
	`m.created_at AS "match.created_at"`,
	`m.updated_at AS "match.updated_at"`,
	`h.name AS "match.home_team_name"`,
	`a.name AS "match.away_team_name"`,
)

func (row predictionTableModel) toDomain() prediction.Prediction {
	return prediction.Prediction{
		ID:        row.ID,
		UserID:    row.UserID,
		MatchID:   row.MatchID,
		HomeScore: row.HomeScore,
		AwayScore: row.AwayScore,
		Points:    row.Points,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func (row predictionChatModel) toDomain() prediction.WithChat {
	return prediction.WithChat{
		Prediction: row.predictionTableModel.toDomain(),
		ChatID:     row.ChatID,
		Notify:     row.Notify,
	}
}

func (row predictionMatchModel) toDomain() prediction.WithMatch {
	return prediction.WithMatch{
		Prediction: row.predictionTableModel.toDomain(),
		Match:      row.Match.toDomain(),
	}
}
