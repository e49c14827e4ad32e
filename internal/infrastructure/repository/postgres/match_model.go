package postgres

import (
	"time"

	"github.com/vglazkov/euro-oracle/internal/domain/match"
)

type matchTableModel struct {
	ID             int64     `db:"id"`
	APIID          int64     `db:"api_id"`
	SeasonID       int64     `db:"season_id"`
	Stage          int       `db:"stage"`
	GroupName      string    `db:"group_name"`
	StartAt        time.Time `db:"start_at"`
	Venue          string    `db:"venue"`
	Status         int       `db:"status"`
	HomeTeamID     int64     `db:"home_team_id"`
	AwayTeamID     int64     `db:"away_team_id"`
	HomeScore90    *int      `db:"home_score_90"`
	AwayScore90    *int      `db:"away_score_90"`
	HomeScoreTotal *int      `db:"home_score_total"`
	AwayScoreTotal *int      `db:"away_score_total"`
	Processed      bool      `db:"processed"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

type matchViewModel struct {
	matchTableModel
	HomeTeamName string `db:"home_team_name"`
	AwayTeamName string `db:"away_team_name"`
}

type matchInsertModel struct {
	APIID          int64     `db:"api_id"`
	SeasonID       int64     `db:"season_id"`
	Stage          int       `db:"stage"`
	GroupName      string    `db:"group_name"`
	StartAt        time.Time `db:"start_at"`
	Venue          string    `db:"venue"`
	Status         int       `db:"status"`
	HomeTeamID     int64     `db:"home_team_id"`
	AwayTeamID     int64     `db:"away_team_id"`
	HomeScore90    *int      `db:"home_score_90"`
	AwayScore90    *int      `db:"away_score_90"`
	HomeScoreTotal *int      `db:"home_score_total"`
	AwayScoreTotal *int      `db:"away_score_total"`
}

var matchViewColumns = []string{
	"m.id", "m.api_id", "m.season_id", "m.stage", "m.group_name", "m.start_at",
	"m.venue", "m.status", "m.home_team_id", "m.away_team_id",
	"m.home_score_90", "m.away_score_90", "m.home_score_total", "m.away_score_total",
	"m.processed", "m.created_at", "m.updated_at",
	"h.name AS home_team_name", "a.name AS away_team_name",
}

func (row matchTableModel) toDomain() match.Match {
	return match.Match{
		ID:             row.ID,
		APIID:          row.APIID,
		SeasonID:       row.SeasonID,
		Stage:          match.Stage(row.Stage),
		Group:          row.GroupName,
		StartAt:        row.StartAt,
		Venue:          row.Venue,
		Status:         match.Status(row.Status),
		HomeTeamID:     row.HomeTeamID,
		AwayTeamID:     row.AwayTeamID,
		HomeScore90:    row.HomeScore90,
		AwayScore90:    row.AwayScore90,
		HomeScoreTotal: row.HomeScoreTotal,
		AwayScoreTotal: row.AwayScoreTotal,
		Processed:      row.Processed,
	}
}

func (row matchViewModel) toDomain() match.WithTeams {
	return match.WithTeams{
		Match:        row.matchTableModel.toDomain(),
		HomeTeamName: row.HomeTeamName,
		AwayTeamName: row.AwayTeamName,
	}
}
