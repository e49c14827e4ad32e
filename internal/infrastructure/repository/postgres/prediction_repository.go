package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vglazkov/euro-oracle/internal/domain/match"
	"github.com/vglazkov/euro-oracle/internal/domain/prediction"
	"github.com/vglazkov/euro-oracle/internal/domain/user"
	qb "github.com/vglazkov/euro-oracle/internal/platform/querybuilder"
)

type PredictionRepository struct {
	db *DB
}

func NewPredictionRepository(db *DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

func (r *PredictionRepository) Upsert(ctx context.Context, p *prediction.Prediction) error {
	insertModel := predictionInsertModel{
		UserID:    p.UserID,
		MatchID:   p.MatchID,
		HomeScore: p.HomeScore,
		AwayScore: p.AwayScore,
	}
	query, args, err := qb.InsertModel("predictions", insertModel,
		`ON CONFLICT (user_id, match_id) DO UPDATE SET
			home_score = EXCLUDED.home_score,
			away_score = EXCLUDED.away_score,
			updated_at = now()
		RETURNING id`)
	if err != nil {
		return fmt.Errorf("build upsert prediction query: %w", err)
	}
	if err := sqlx.GetContext(ctx, r.db.ext(ctx), &p.ID, query, args...); err != nil {
		return fmt.Errorf("upsert prediction: %w", err)
	}
	return nil
}

func (r *PredictionRepository) GetByUserAndMatch(ctx context.Context, userID, matchID int64) (prediction.Prediction, bool, error) {
	query, args, err := qb.Select(predictionColumns...).
		From("predictions p").
		Where(qb.Eq("p.user_id", userID)).
		Where(qb.Eq("p.match_id", matchID)).
		ToSQL()
	if err != nil {
		return prediction.Prediction{}, false, fmt.Errorf("build get prediction query: %w", err)
	}

	var row predictionTableModel
	if err := sqlx.GetContext(ctx, r.db.ext(ctx), &row, query, args...); err != nil {
		if isNotFound(err) {
			return prediction.Prediction{}, false, nil
		}
		return prediction.Prediction{}, false, fmt.Errorf("get prediction: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *PredictionRepository) ListByMatch(ctx context.Context, matchID int64) ([]prediction.WithChat, error) {
	columns := append(append([]string{}, predictionColumns...), "u.chat_id", "u.notify")
	query, args, err := qb.Select(columns...).
		From("predictions p").
		Join("users u ON u.id = p.user_id").
		Where(qb.Eq("p.match_id", matchID)).
		OrderBy("p.id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list predictions by match query: %w", err)
	}

	var rows []predictionChatModel
	if err := sqlx.SelectContext(ctx, r.db.ext(ctx), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list predictions by match: %w", err)
	}
	out := make([]prediction.WithChat, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *PredictionRepository) ListByUser(ctx context.Context, userID int64) ([]prediction.WithMatch, error) {
	query, args, err := qb.Select(predictionMatchColumns...).
		From("predictions p").
		Join("matches m ON m.id = p.match_id").
		Join("teams h ON h.id = m.home_team_id").
		Join("teams a ON a.id = m.away_team_id").
		Where(qb.Eq("p.user_id", userID)).
		OrderBy("m.start_at ASC", "m.id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list predictions by user query: %w", err)
	}

	var rows []predictionMatchModel
	if err := sqlx.SelectContext(ctx, r.db.ext(ctx), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list predictions by user: %w", err)
	}
	out := make([]prediction.WithMatch, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *PredictionRepository) NextUnpredictedMatch(ctx context.Context, userID int64, now time.Time) (match.WithTeams, bool, error) {
	query, args, err := qb.Select(matchViewColumns...).
		From("matches m").
		Join("teams h ON h.id = m.home_team_id").
		Join("teams a ON a.id = m.away_team_id").
		Where(qb.Expr("m.start_at > ?", now)).
		Where(qb.Expr("NOT EXISTS (SELECT 1 FROM predictions p WHERE p.match_id = m.id AND p.user_id = ?)", userID)).
		OrderBy("m.start_at ASC", "m.id ASC").
		Limit(1).
		ToSQL()
	if err != nil {
		return match.WithTeams{}, false, fmt.Errorf("build next unpredicted match query: %w", err)
	}

	var row matchViewModel
	if err := sqlx.GetContext(ctx, r.db.ext(ctx), &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.WithTeams{}, false, nil
		}
		return match.WithTeams{}, false, fmt.Errorf("next unpredicted match: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *PredictionRepository) SetPoints(ctx context.Context, id int64, points int) error {
	query, args, err := qb.Update("predictions").
		Set("points", points).
		SetExpr("updated_at", "now()").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build set prediction points query: %w", err)
	}
	if _, err := r.db.ext(ctx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set prediction points: %w", err)
	}
	return nil
}

func (r *PredictionRepository) TotalPoints(ctx context.Context, userID int64) (int, error) {
	query, args, err := qb.Select("COALESCE(SUM(points), 0)").
		From("predictions").
		Where(qb.Eq("user_id", userID)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build total points query: %w", err)
	}

	var total int
	if err := sqlx.GetContext(ctx, r.db.ext(ctx), &total, query, args...); err != nil {
		return 0, fmt.Errorf("total points: %w", err)
	}
	return total, nil
}

// leaderboardQuery aggregates points per user; ties are broken by user
// id so the ordering is stable across runs.
func leaderboardQuery(limit int) (string, []any, error) {
	return qb.Select(
		"u.id AS user_id", "u.first_name", "u.user_name",
		"COALESCE(SUM(p.points), 0) AS points",
	).
		From("predictions p").
		Join("users u ON u.id = p.user_id").
		GroupBy("u.id", "u.first_name", "u.user_name").
		OrderBy("points DESC", "u.id ASC").
		Limit(limit).
		ToSQL()
}

func (r *PredictionRepository) Leaderboard(ctx context.Context, limit int) ([]prediction.Standing, error) {
	query, args, err := leaderboardQuery(limit)
	if err != nil {
		return nil, fmt.Errorf("build leaderboard query: %w", err)
	}

	var rows []standingModel
	if err := sqlx.SelectContext(ctx, r.db.ext(ctx), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	out := make([]prediction.Standing, 0, len(rows))
	for _, row := range rows {
		u := user.User{FirstName: row.FirstName, UserName: row.UserName}
		out = append(out, prediction.Standing{
			UserID: row.UserID,
			Name:   u.DisplayName(),
			Points: row.Points,
		})
	}
	return out, nil
}
