package scoring

import (
	"time"

	"github.com/daklaw/nba-pickem-backend/internal/domain/game"
	"github.com/daklaw/nba-pickem-backend/internal/domain/pick"
	"github.com/daklaw/nba-pickem-backend/internal/domain/week"
)

type teamWeek struct {
	teamID string
	number int
}

// Ledger tallies team records per week and per season from a game set.
// It is the single source both the applier and the recalculator score from.
type Ledger struct {
	weeks   map[teamWeek]Record
	seasons map[string]Record
}

// Evaluation is the scoring of one pick against a ledger.
type Evaluation struct {
	Record Record
	Moon   MoonStatus
	Points int
}

// NewLedger builds a ledger. Cancelled games and final games that are tied
// or missing a score are ignored; games before the anchor count toward week 1 only when clamp is set.
func NewLedger(anchor time.Time, clamp bool, games []game.Game) *Ledger {
	l := &Ledger{
		weeks:   make(map[teamWeek]Record),
		seasons: make(map[string]Record),
	}
	for _, g := range games {
		number := week.NumberFor(anchor, g.Date)
		if number < 1 {
			if !clamp {
				continue
			}
			number = 1
		}

		if g.IsCancelled() {
			continue
		}
		if !g.IsFinal() {
			l.add(g.HomeTeamID, number, func(r *Record) { r.Pending++ })
			l.add(g.AwayTeamID, number, func(r *Record) { r.Pending++ })
			continue
		}
		winner, loser, ok := g.WinnerLoser()
		if !ok {
			continue
		}
		l.add(winner, number, func(r *Record) { r.Wins++ })
		l.add(loser, number, func(r *Record) { r.Losses++ })
	}
	return l
}

func (l *Ledger) add(teamID string, number int, fn func(*Record)) {
	if teamID == "" {
		return
	}
	key := teamWeek{teamID: teamID, number: number}
	wr := l.weeks[key]
	fn(&wr)
	l.weeks[key] = wr

	sr := l.seasons[teamID]
	fn(&sr)
	l.seasons[teamID] = sr
}

func (l *Ledger) Week(teamID string, number int) Record {
	return l.weeks[teamWeek{teamID: teamID, number: number}]
}

func (l *Ledger) Season(teamID string) Record {
	return l.seasons[teamID]
}

func (l *Ledger) Moon(teamID string, number int, scope Scope) MoonStatus {
	if scope == ScopeWeek {
		return MoonStatus{Record: l.Week(teamID, number)}
	}
	return MoonStatus{Record: l.Season(teamID)}
}

// Evaluate computes what p is worth under scope.
func (l *Ledger) Evaluate(p pick.Pick, scope Scope) Evaluation {
	record := l.Week(p.TeamID, p.WeekNumber)
	moon := l.Moon(p.TeamID, p.WeekNumber, scope)
	return Evaluation{
		Record: record,
		Moon:   moon,
		Points: Target(p, record, moon),
	}
}
