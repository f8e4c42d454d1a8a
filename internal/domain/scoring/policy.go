package scoring

import (
	"fmt"
	"strings"

	"github.com/daklaw/nba-pickem-backend/internal/domain/pick"
)

type Outcome int

const (
	OutcomeLoss Outcome = iota
	OutcomeWin
)

const (
	pointsPerWin          = 1
	pointsPerSuperweekWin = 2
	pointsPerMoonLoss     = 2
)

// Scope is the set of games shoot-the-moon qualification is judged on.
type Scope string

const (
	ScopeSeason Scope = "season"
	ScopeWeek   Scope = "week"
)

func ParseScope(value string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(value))) {
	case "", ScopeSeason:
		return ScopeSeason, nil
	case ScopeWeek:
		return ScopeWeek, nil
	default:
		return "", fmt.Errorf("unknown shoot-the-moon scope %q", value)
	}
}

// Rules holds the tunable parts of scoring.
type Rules struct {
	ShootTheMoonScope Scope
	// ClampEarlyDates maps dates before the season anchor into week 1
	// instead of rejecting them.
	ClampEarlyDates bool
}

func DefaultRules() Rules {
	return Rules{
		ShootTheMoonScope: ScopeSeason,
		ClampEarlyDates:   true,
	}
}

// Record is a team's result count over a set of games.
type Record struct {
	Wins    int
	Losses  int
	Pending int
}

func (r Record) String() string {
	return fmt.Sprintf("%d-%d", r.Wins, r.Losses)
}

// MoonStatus is the shoot-the-moon qualification context of a team.
type MoonStatus struct {
	Record
}

// Qualifies is true once every game in scope is final and lost.
func (m MoonStatus) Qualifies() bool {
	return m.Wins == 0 && m.Pending == 0 && m.Losses > 0
}

// Provisional is true while the team is still winless but games remain.
func (m MoonStatus) Provisional() bool {
	return m.Wins == 0 && m.Pending > 0
}

// PointsFor scores one game outcome for a pick.
func PointsFor(p pick.Pick, outcome Outcome, moon MoonStatus) int {
	switch {
	case p.IsShootTheMoon:
		if outcome == OutcomeLoss && moon.Qualifies() {
			return pointsPerMoonLoss
		}
		return 0
	case outcome == OutcomeWin && p.IsSuperweek:
		return pointsPerSuperweekWin
	case outcome == OutcomeWin:
		return pointsPerWin
	default:
		return 0
	}
}

// Target is the total a pick is worth for the team's final games of its week.
func Target(p pick.Pick, record Record, moon MoonStatus) int {
	return record.Wins*PointsFor(p, OutcomeWin, moon) + record.Losses*PointsFor(p, OutcomeLoss, moon)
}
