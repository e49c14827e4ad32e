package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vglazkov/euro-oracle/internal/domain/match"
	"github.com/vglazkov/euro-oracle/internal/domain/prediction"
)

func TestCalculatePoints(t *testing.T) {
	cases := []struct {
		name               string
		predHome, predAway int
		resHome, resAway   int
		want               int
	}{
		{"wrong outcome", 2, 1, 0, 2, 0},
		{"draw predicted, home won", 1, 1, 2, 1, 0},
		{"exact blowout", 4, 0, 4, 0, 5},
		{"blowout margin guessed", 3, 0, 4, 0, 4},
		{"blowout margin guessed other score", 5, 1, 4, 0, 4},
		{"blowout winner only", 2, 0, 4, 0, 1},
		{"exact score", 2, 1, 2, 1, 3},
		{"goal difference guessed", 3, 2, 2, 1, 2},
		{"exact draw", 1, 1, 1, 1, 3},
		{"draw guessed", 2, 2, 1, 1, 2},
		{"winner only", 2, 0, 2, 1, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculatePoints(tc.predHome, tc.predAway, tc.resHome, tc.resAway)
			if got != tc.want {
				t.Fatalf("CalculatePoints(%d,%d vs %d,%d) = %d, want %d",
					tc.predHome, tc.predAway, tc.resHome, tc.resAway, got, tc.want)
			}
		})
	}
}

type stubPredictionRepo struct {
	prediction.Repository

	byMatch   []prediction.WithChat
	setPoints map[int64]int
	listErr   error
}

func (s *stubPredictionRepo) ListByMatch(_ context.Context, _ int64) ([]prediction.WithChat, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.byMatch, nil
}

func (s *stubPredictionRepo) SetPoints(_ context.Context, id int64, points int) error {
	if s.setPoints == nil {
		s.setPoints = make(map[int64]int)
	}
	s.setPoints[id] = points
	return nil
}

func intPtr(v int) *int { return &v }

func finishedMatch(home, away int) match.WithTeams {
	return match.WithTeams{
		Match: match.Match{
			ID:             10,
			Status:         match.StatusFinished,
			StartAt:        time.Date(2021, 6, 11, 19, 0, 0, 0, time.UTC),
			HomeScore90:    intPtr(home),
			AwayScore90:    intPtr(away),
			HomeScoreTotal: intPtr(home),
			AwayScoreTotal: intPtr(away),
		},
		HomeTeamName: "Италия",
		AwayTeamName: "Турция",
	}
}

func TestProcessMatchResultWritesExplicitZero(t *testing.T) {
	repo := &stubPredictionRepo{
		byMatch: []prediction.WithChat{
			{Prediction: prediction.Prediction{ID: 1, HomeScore: 3, AwayScore: 0}, ChatID: 100, Notify: true},
			{Prediction: prediction.Prediction{ID: 2, HomeScore: 0, AwayScore: 1}, ChatID: 200, Notify: true},
		},
	}
	svc := NewScoringService(repo, nil)

	m := finishedMatch(3, 0)
	scored, err := svc.ProcessMatchResult(context.Background(), &m)
	if err != nil {
		t.Fatalf("ProcessMatchResult: %v", err)
	}
	if len(scored) != 2 {
		t.Fatalf("scored %d predictions, want 2", len(scored))
	}

	if got := repo.setPoints[1]; got != 5 {
		t.Fatalf("exact prediction got %d points, want 5", got)
	}
	if got, ok := repo.setPoints[2]; !ok || got != 0 {
		t.Fatalf("wrong prediction must be written as zero, got %d (written=%t)", got, ok)
	}
}

func TestProcessMatchResultRejectsUnfinishedMatch(t *testing.T) {
	svc := NewScoringService(&stubPredictionRepo{}, nil)

	m := finishedMatch(1, 0)
	m.Status = match.StatusInProgress
	if _, err := svc.ProcessMatchResult(context.Background(), &m); !errors.Is(err, ErrMatchNotFinished) {
		t.Fatalf("expected ErrMatchNotFinished, got %v", err)
	}

	m = finishedMatch(1, 0)
	m.HomeScore90 = nil
	if _, err := svc.ProcessMatchResult(context.Background(), &m); !errors.Is(err, ErrMatchNotFinished) {
		t.Fatalf("expected ErrMatchNotFinished without scores, got %v", err)
	}
}

func TestProcessMatchResultCarriesNotifyFlag(t *testing.T) {
	repo := &stubPredictionRepo{
		byMatch: []prediction.WithChat{
			{Prediction: prediction.Prediction{ID: 1, HomeScore: 2, AwayScore: 1}, ChatID: 100, Notify: true},
			{Prediction: prediction.Prediction{ID: 2, HomeScore: 2, AwayScore: 1}, ChatID: 200, Notify: false},
		},
	}
	svc := NewScoringService(repo, nil)

	m := finishedMatch(2, 1)
	scored, err := svc.ProcessMatchResult(context.Background(), &m)
	if err != nil {
		t.Fatalf("ProcessMatchResult: %v", err)
	}
	if !scored[0].Notify || scored[1].Notify {
		t.Fatalf("notify flags not carried through: %+v", scored)
	}
}
