package game

import (
	"strings"
	"time"
)

const (
	StatusPending   = "pending"
	StatusFinal     = "final"
	StatusCancelled = "cancelled"
)

// Game is one NBA game as ingested from the schedule feed.
type Game struct {
	ID           string
	ExternalID   string
	SeasonID     string
	HomeTeamID   string
	AwayTeamID   string
	HomeScore    *int
	AwayScore    *int
	Status       string
	WinnerTeamID string
	WeekID       string
	// Date is the calendar date the game is played on, in league time.
	Date     time.Time
	StartsAt *time.Time
}

func NormalizeStatus(value string) string {
	status := strings.ToLower(strings.TrimSpace(value))
	switch status {
	case "", "scheduled", "live", "in_progress":
		return StatusPending
	case "finished", "completed", "ft":
		return StatusFinal
	case "canceled", "postponed":
		return StatusCancelled
	default:
		return status
	}
}

func (g Game) IsFinal() bool {
	return NormalizeStatus(g.Status) == StatusFinal
}

func (g Game) IsCancelled() bool {
	return NormalizeStatus(g.Status) == StatusCancelled
}

// HasScores reports whether both scores are present.
func (g Game) HasScores() bool {
	return g.HomeScore != nil && g.AwayScore != nil
}

// WinnerLoser derives both sides from the scores. ok is false when a score
// is missing or the game is tied.
func (g Game) WinnerLoser() (winner, loser string, ok bool) {
	if !g.HasScores() {
		return "", "", false
	}
	switch {
	case *g.HomeScore > *g.AwayScore:
		return g.HomeTeamID, g.AwayTeamID, true
	case *g.AwayScore > *g.HomeScore:
		return g.AwayTeamID, g.HomeTeamID, true
	default:
		return "", "", false
	}
}

// Involves reports whether teamID played in this game.
func (g Game) Involves(teamID string) bool {
	return teamID != "" && (g.HomeTeamID == teamID || g.AwayTeamID == teamID)
}

// IntPtr is a small helper for building scores.
func IntPtr(v int) *int {
	return &v
}
