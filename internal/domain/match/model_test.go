package match

import (
	"testing"
	"time"
)

func TestStatusFromProvider(t *testing.T) {
	cases := []struct {
		raw  string
		want Status
	}{
		{"notstarted", StatusNotStarted},
		{"finished", StatusFinished},
		{"Finished", StatusFinished},
		{"in progress", StatusInProgress},
		{" In Progress ", StatusInProgress},
		{"postponed", StatusNotStarted},
		{"", StatusNotStarted},
	}
	for _, tc := range cases {
		if got := StatusFromProvider(tc.raw); got != tc.want {
			t.Errorf("StatusFromProvider(%q) = %d, want %d", tc.raw, got, tc.want)
		}
	}
}

func TestGroupStageForRound(t *testing.T) {
	for round, want := range map[int]Stage{1: StageGroupRound1, 2: StageGroupRound2, 3: StageGroupRound3} {
		got, ok := GroupStageForRound(round)
		if !ok || got != want {
			t.Errorf("GroupStageForRound(%d) = %d, %v", round, got, ok)
		}
	}
	if _, ok := GroupStageForRound(4); ok {
		t.Error("round 4 must not map to a group stage")
	}
}

func TestFinishedRequiresScores(t *testing.T) {
	score := 2
	m := Match{Status: StatusFinished, StartAt: time.Now()}
	if m.Finished() {
		t.Error("finished status without scores must not count as finished")
	}
	m.HomeScore90, m.AwayScore90 = &score, &score
	if !m.Finished() {
		t.Error("finished status with both scores must count as finished")
	}
	m.Status = StatusInProgress
	if m.Finished() {
		t.Error("in-progress match must not count as finished")
	}
}

func TestOutcomeOf(t *testing.T) {
	if OutcomeOf(2, 1) != OutcomeHomeWin {
		t.Error("2:1 should be a home win")
	}
	if OutcomeOf(0, 3) != OutcomeAwayWin {
		t.Error("0:3 should be an away win")
	}
	if OutcomeOf(1, 1) != OutcomeDraw {
		t.Error("1:1 should be a draw")
	}
}
