package match

import (
	"strings"
	"time"
)

// Stage orders tournament phases; the three group rounds come first so
// fixtures sort chronologically by (stage, start_at).
type Stage int

const (
	StageGroupRound1 Stage = 10
	StageGroupRound2 Stage = 20
	StageGroupRound3 Stage = 30
	StageRoundOf16   Stage = 40
	StageQuarter     Stage = 50
	StageSemi        Stage = 60
	StageFinal       Stage = 70
)

func (s Stage) IsGroup() bool {
	return s == StageGroupRound1 || s == StageGroupRound2 || s == StageGroupRound3
}

// GroupStageForRound maps a group-phase round number onto its stage.
func GroupStageForRound(round int) (Stage, bool) {
	switch round {
	case 1:
		return StageGroupRound1, true
	case 2:
		return StageGroupRound2, true
	case 3:
		return StageGroupRound3, true
	default:
		return 0, false
	}
}

type Status int

const (
	StatusNotStarted Status = 10
	StatusInProgress Status = 20
	StatusFinished   Status = 30
)

// StatusFromProvider normalizes the feed's free-text match status.
// Anything unrecognized is treated as not started so a later sync run
// can still pick the fixture up.
func StatusFromProvider(value string) Status {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "finished":
		return StatusFinished
	case "in progress":
		return StatusInProgress
	default:
		return StatusNotStarted
	}
}

// Match is one tournament fixture as persisted locally. The 90-minute
// score drives scoring; the total score includes extra time and is
// used for display only. Scores stay nil until the feed reports them.
type Match struct {
	ID             int64
	APIID          int64
	SeasonID       int64
	Stage          Stage
	Group          string
	StartAt        time.Time
	Venue          string
	Status         Status
	HomeTeamID     int64
	AwayTeamID     int64
	HomeScore90    *int
	AwayScore90    *int
	HomeScoreTotal *int
	AwayScoreTotal *int
	Processed      bool
}

// Finished reports whether the fixture has a final regular-time score.
func (m *Match) Finished() bool {
	return m.Status == StatusFinished && m.HomeScore90 != nil && m.AwayScore90 != nil
}

// WithTeams is the read model used for display: a match joined with
// both team names.
type WithTeams struct {
	Match
	HomeTeamName string
	AwayTeamName string
}

type Outcome int

const (
	OutcomeHomeWin Outcome = 1
	OutcomeDraw    Outcome = 0
	OutcomeAwayWin Outcome = -1
)

func OutcomeOf(home, away int) Outcome {
	switch {
	case home > away:
		return OutcomeHomeWin
	case home < away:
		return OutcomeAwayWin
	default:
		return OutcomeDraw
	}
}
