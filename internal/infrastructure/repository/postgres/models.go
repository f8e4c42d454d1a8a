package postgres

import (
	"database/sql"
	"time"

	"github.com/daklaw/nba-pickem-backend/internal/domain/game"
	"github.com/daklaw/nba-pickem-backend/internal/domain/pick"
	"github.com/daklaw/nba-pickem-backend/internal/domain/season"
	"github.com/daklaw/nba-pickem-backend/internal/domain/user"
	"github.com/daklaw/nba-pickem-backend/internal/domain/week"
)

type seasonTableModel struct {
	ID         string       `db:"id"`
	LeagueID   string       `db:"league_id"`
	Year       int          `db:"year"`
	Label      string       `db:"label"`
	AnchorDate sql.NullTime `db:"anchor_date"`
}

func (m seasonTableModel) toDomain() season.Season {
	out := season.Season{
		ID:       m.ID,
		LeagueID: m.LeagueID,
		Year:     m.Year,
		Label:    m.Label,
	}
	if m.AnchorDate.Valid {
		anchor := week.Date(m.AnchorDate.Time)
		out.AnchorDate = &anchor
	}
	return out
}

type weekTableModel struct {
	ID        string    `db:"id"`
	SeasonID  string    `db:"season_id"`
	Number    int       `db:"number"`
	StartDate time.Time `db:"start_date"`
	EndDate   time.Time `db:"end_date"`
}

func (m weekTableModel) toDomain() week.Week {
	return week.Week{
		ID:        m.ID,
		SeasonID:  m.SeasonID,
		Number:    m.Number,
		StartDate: week.Date(m.StartDate),
		EndDate:   week.Date(m.EndDate),
	}
}

type gameTableModel struct {
	ID           string         `db:"id"`
	ExternalID   string         `db:"external_id"`
	SeasonID     string         `db:"season_id"`
	HomeTeamID   string         `db:"home_team_id"`
	AwayTeamID   string         `db:"away_team_id"`
	HomeScore    sql.NullInt64  `db:"home_score"`
	AwayScore    sql.NullInt64  `db:"away_score"`
	Status       string         `db:"status"`
	WinnerTeamID sql.NullString `db:"winner_team_id"`
	WeekID       sql.NullString `db:"week_id"`
	GameDate     time.Time      `db:"game_date"`
	StartsAt     sql.NullTime   `db:"starts_at"`
}

func gameModelFrom(g game.Game) gameTableModel {
	m := gameTableModel{
		ID:           g.ID,
		ExternalID:   g.ExternalID,
		SeasonID:     g.SeasonID,
		HomeTeamID:   g.HomeTeamID,
		AwayTeamID:   g.AwayTeamID,
		HomeScore:    nullInt(g.HomeScore),
		AwayScore:    nullInt(g.AwayScore),
		Status:       game.NormalizeStatus(g.Status),
		WinnerTeamID: nullString(g.WinnerTeamID),
		WeekID:       nullString(g.WeekID),
		GameDate:     week.Date(g.Date),
	}
	if g.StartsAt != nil {
		m.StartsAt = sql.NullTime{Time: *g.StartsAt, Valid: true}
	}
	return m
}

func (m gameTableModel) toDomain() game.Game {
	out := game.Game{
		ID:           m.ID,
		ExternalID:   m.ExternalID,
		SeasonID:     m.SeasonID,
		HomeTeamID:   m.HomeTeamID,
		AwayTeamID:   m.AwayTeamID,
		HomeScore:    intPtr(m.HomeScore),
		AwayScore:    intPtr(m.AwayScore),
		Status:       m.Status,
		WinnerTeamID: m.WinnerTeamID.String,
		WeekID:       m.WeekID.String,
		Date:         week.Date(m.GameDate),
	}
	if m.StartsAt.Valid {
		startsAt := m.StartsAt.Time
		out.StartsAt = &startsAt
	}
	return out
}

type pickTableModel struct {
	ID             string `db:"id"`
	UserID         string `db:"user_id"`
	TeamID         string `db:"team_id"`
	SeasonID       string `db:"season_id"`
	WeekID         string `db:"week_id"`
	WeekNumber     int    `db:"week_number"`
	IsSuperweek    bool   `db:"is_superweek"`
	IsShootTheMoon bool   `db:"is_shoot_the_moon"`
	PointsAwarded  int    `db:"points_awarded"`
	Wins           int    `db:"wins"`
	Losses         int    `db:"losses"`
	Version        int64  `db:"version"`
}

func (m pickTableModel) toDomain() pick.Pick {
	return pick.Pick{
		ID:             m.ID,
		UserID:         m.UserID,
		TeamID:         m.TeamID,
		SeasonID:       m.SeasonID,
		WeekID:         m.WeekID,
		WeekNumber:     m.WeekNumber,
		IsSuperweek:    m.IsSuperweek,
		IsShootTheMoon: m.IsShootTheMoon,
		PointsAwarded:  m.PointsAwarded,
		Wins:           m.Wins,
		Losses:         m.Losses,
		Version:        m.Version,
	}
}

type userTableModel struct {
	ID          string `db:"id"`
	LeagueID    string `db:"league_id"`
	Name        string `db:"name"`
	TotalPoints int    `db:"total_points"`
	Version     int64  `db:"version"`
}

func (m userTableModel) toDomain() user.User {
	return user.User{
		ID:          m.ID,
		LeagueID:    m.LeagueID,
		Name:        m.Name,
		TotalPoints: m.TotalPoints,
		Version:     m.Version,
	}
}
