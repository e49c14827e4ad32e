package usecase

import (
	"strings"
	"testing"
	"time"

	"github.com/vglazkov/euro-oracle/internal/domain/match"
	"github.com/vglazkov/euro-oracle/internal/domain/prediction"
)

func TestPluralPoints(t *testing.T) {
	cases := map[int]string{
		0:   "0 очков",
		1:   "1 очко",
		2:   "2 очка",
		4:   "4 очка",
		5:   "5 очков",
		11:  "11 очков",
		12:  "12 очков",
		14:  "14 очков",
		21:  "21 очко",
		22:  "22 очка",
		25:  "25 очков",
		111: "111 очков",
	}
	for n, want := range cases {
		if got := PluralPoints(n); got != want {
			t.Fatalf("PluralPoints(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestStageLabel(t *testing.T) {
	m := match.WithTeams{Match: match.Match{Stage: match.StageGroupRound2, Group: "C"}}
	if got := StageLabel(m); got != "Группа C" {
		t.Fatalf("group stage label = %q", got)
	}
	m.Stage = match.StageRoundOf16
	if got := StageLabel(m); got != "1/8 финала" {
		t.Fatalf("round of 16 label = %q", got)
	}
	m.Stage = match.StageFinal
	if got := StageLabel(m); got != "Финал" {
		t.Fatalf("final label = %q", got)
	}
}

func TestFormatMatchConvertsKickoffToDisplayZone(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Yekaterinburg")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	m := match.WithTeams{
		Match: match.Match{
			ID:      3,
			Stage:   match.StageGroupRound1,
			Group:   "A",
			StartAt: time.Date(2021, 6, 11, 19, 0, 0, 0, time.UTC),
			Status:  match.StatusNotStarted,
		},
		HomeTeamName: "Турция",
		AwayTeamName: "Италия",
	}

	got := FormatMatch(m, loc)
	if !strings.Contains(got, "12.06.2021 00:00") {
		t.Fatalf("expected UTC+5 kickoff in %q", got)
	}
	if !strings.Contains(got, "(не начался)") {
		t.Fatalf("expected not-started marker in %q", got)
	}
}

func TestFormatMatchShowsTotalScoreWhenFinished(t *testing.T) {
	m := match.WithTeams{
		Match: match.Match{
			ID:             40,
			Stage:          match.StageSemi,
			StartAt:        time.Date(2021, 7, 6, 19, 0, 0, 0, time.UTC),
			Status:         match.StatusFinished,
			HomeScore90:    intPtr(1),
			AwayScore90:    intPtr(1),
			HomeScoreTotal: intPtr(2),
			AwayScoreTotal: intPtr(1),
		},
		HomeTeamName: "Италия",
		AwayTeamName: "Испания",
	}

	got := FormatMatch(m, time.UTC)
	if !strings.Contains(got, "*2* - *1*") {
		t.Fatalf("expected extra-time totals in %q", got)
	}
	if !strings.Contains(got, "1/2 финала") {
		t.Fatalf("expected stage label in %q", got)
	}
}

func TestFormatPredictionAppendsPointsWhenScored(t *testing.T) {
	p := prediction.WithMatch{
		Prediction: prediction.Prediction{HomeScore: 2, AwayScore: 1, Points: intPtr(3)},
		Match: match.WithTeams{
			Match: match.Match{
				ID:             7,
				StartAt:        time.Date(2021, 6, 16, 13, 0, 0, 0, time.UTC),
				Status:         match.StatusFinished,
				HomeScore90:    intPtr(2),
				AwayScore90:    intPtr(1),
				HomeScoreTotal: intPtr(2),
				AwayScoreTotal: intPtr(1),
			},
			HomeTeamName: "Россия",
			AwayTeamName: "Финляндия",
		},
	}

	got := FormatPrediction(p, time.UTC)
	if !strings.Contains(got, "Ваш прогноз: _2 - 1_") {
		t.Fatalf("expected prediction line in %q", got)
	}
	if !strings.Contains(got, "(3 очка)") {
		t.Fatalf("expected points suffix in %q", got)
	}
}

func TestResultMessage(t *testing.T) {
	m := finishedMatch(2, 0)
	sp := ScoredPrediction{Points: 2, PredictedHome: 1, PredictedAway: 0}

	got := ResultMessage(m, sp)
	if !strings.Contains(got, "*Матч завершен*") {
		t.Fatalf("expected header in %q", got)
	}
	if !strings.Contains(got, "Ваш прогноз: _1 - 0_") {
		t.Fatalf("expected prediction in %q", got)
	}
	if !strings.Contains(got, "Вы заработали: *2 очка*") {
		t.Fatalf("expected points in %q", got)
	}
}
