package usecase

import (
	"context"
	"fmt"

	"github.com/vglazkov/euro-oracle/internal/domain/match"
	"github.com/vglazkov/euro-oracle/internal/domain/prediction"
	"github.com/vglazkov/euro-oracle/internal/platform/logging"
)

// ScoringService awards points for all predictions of a finished
// match. It runs inside the caller's transaction so prediction writes
// commit together with the match's processed flag.
type ScoringService struct {
	predictionRepo prediction.Repository
	log            *logging.Logger
}

func NewScoringService(predictionRepo prediction.Repository, log *logging.Logger) *ScoringService {
	if log == nil {
		log = logging.NewNop()
	}
	return &ScoringService{predictionRepo: predictionRepo, log: log}
}

// ScoredPrediction is the outcome for one user, used for notifications
// after the surrounding transaction commits.
type ScoredPrediction struct {
	ChatID        int64
	Notify        bool
	Points        int
	PredictedHome int
	PredictedAway int
}

// ProcessMatchResult scores every prediction for the match. Wrong
// predictions get an explicit zero so they read as processed.
func (s *ScoringService) ProcessMatchResult(ctx context.Context, m *match.WithTeams) ([]ScoredPrediction, error) {
	ctx, span := startUsecaseSpan(ctx, "ScoringService.ProcessMatchResult")
	defer span.End()

	if m == nil {
		return nil, fmt.Errorf("%w: match is required", ErrInvalidInput)
	}
	if !m.Finished() {
		return nil, fmt.Errorf("%w: match id=%d status=%d", ErrMatchNotFinished, m.ID, m.Status)
	}

	predictions, err := s.predictionRepo.ListByMatch(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("list predictions for match id=%d: %w", m.ID, err)
	}

	scored := make([]ScoredPrediction, 0, len(predictions))
	for _, p := range predictions {
		points := CalculatePoints(p.HomeScore, p.AwayScore, *m.HomeScore90, *m.AwayScore90)
		if err := s.predictionRepo.SetPoints(ctx, p.ID, points); err != nil {
			return nil, fmt.Errorf("set points prediction id=%d: %w", p.ID, err)
		}
		scored = append(scored, ScoredPrediction{
			ChatID:        p.ChatID,
			Notify:        p.Notify,
			Points:        points,
			PredictedHome: p.HomeScore,
			PredictedAway: p.AwayScore,
		})
	}

	s.log.InfoContext(ctx, "match scored",
		"match_id", m.ID,
		"predictions", len(scored),
	)
	return scored, nil
}

// CalculatePoints compares a predicted regular-time score against the
// actual one. A blowout is a result decided by three or more goals; it
// has its own scale because guessing the exact score of one is rarer.
func CalculatePoints(predHome, predAway, resHome, resAway int) int {
	exact := predHome == resHome && predAway == resAway
	sameOutcome := match.OutcomeOf(predHome, predAway) == match.OutcomeOf(resHome, resAway)
	if !sameOutcome {
		return 0
	}

	resDiff := resHome - resAway
	if resDiff < 0 {
		resDiff = -resDiff
	}
	predDiff := predHome - predAway
	if predDiff < 0 {
		predDiff = -predDiff
	}

	if resDiff >= 3 {
		switch {
		case exact:
			return 5
		case predDiff >= 3:
			return 4
		default:
			return 1
		}
	}

	switch {
	case exact:
		return 3
	case predHome-predAway == resHome-resAway:
		return 2
	default:
		return 1
	}
}
