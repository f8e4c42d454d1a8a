package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/daklaw/nba-pickem-backend/internal/domain/game"
	"github.com/daklaw/nba-pickem-backend/internal/domain/pick"
	"github.com/daklaw/nba-pickem-backend/internal/domain/scoring"
	"github.com/daklaw/nba-pickem-backend/internal/domain/season"
	"github.com/daklaw/nba-pickem-backend/internal/domain/user"
	"github.com/daklaw/nba-pickem-backend/internal/domain/week"
	"github.com/daklaw/nba-pickem-backend/internal/infrastructure/repository/memory"
	idgen "github.com/daklaw/nba-pickem-backend/internal/platform/id"
	"github.com/daklaw/nba-pickem-backend/internal/platform/logging"
	"github.com/daklaw/nba-pickem-backend/internal/platform/resilience"
)

const testSeasonID = "nba-2024-25"

var openingNight = time.Date(2024, 10, 22, 0, 0, 0, 0, time.UTC)

func day(offset int) time.Time {
	return openingNight.AddDate(0, 0, offset)
}

type score struct {
	home int
	away int
}

// seasonFixture is a season whose anchor is not stored yet. Weeks 1 and 3
// exist because picks were made for them. finals marks seeded games final.
func seasonFixture(finals map[string]score) memory.Fixture {
	w1 := week.New(testSeasonID, openingNight, 1)
	w1.ID = "week-1"
	w3 := week.New(testSeasonID, openingNight, 3)
	w3.ID = "week-3"

	games := []game.Game{
		{ID: "g1", ExternalID: "0022400061", HomeTeamID: "BOS", AwayTeamID: "NYK", Date: day(0)},
		{ID: "g2", ExternalID: "0022400072", HomeTeamID: "LAL", AwayTeamID: "MIN", Date: day(2)},
		{ID: "g3", ExternalID: "0022400158", HomeTeamID: "BOS", AwayTeamID: "NYK", Date: day(14)},
		{ID: "g4", ExternalID: "0022400166", HomeTeamID: "DET", AwayTeamID: "BOS", Date: day(15)},
		{ID: "g5", ExternalID: "0022400081", HomeTeamID: "DET", AwayTeamID: "LAL", Date: day(3)},
	}
	for i := range games {
		games[i].SeasonID = testSeasonID
		games[i].Status = game.StatusPending
		if s, ok := finals[games[i].ExternalID]; ok {
			games[i].Status = game.StatusFinal
			games[i].HomeScore = game.IntPtr(s.home)
			games[i].AwayScore = game.IntPtr(s.away)
		}
	}

	return memory.Fixture{
		Seasons: []season.Season{{ID: testSeasonID, LeagueID: "league-1", Year: 2024, Label: "2024-25"}},
		Weeks:   []week.Week{w1, w3},
		Users: []user.User{
			{ID: "u1", LeagueID: "league-1", Name: "Ana", Version: 1},
			{ID: "u2", LeagueID: "league-1", Name: "Ben", Version: 1},
			{ID: "u3", LeagueID: "league-1", Name: "Cy", Version: 1},
		},
		Games: games,
		Picks: []pick.Pick{
			{ID: "p-u1-w1", UserID: "u1", TeamID: "BOS", WeekID: w1.ID},
			{ID: "p-u1-w3", UserID: "u1", TeamID: "DET", WeekID: w3.ID, IsShootTheMoon: true},
			{ID: "p-u2-w1", UserID: "u2", TeamID: "NYK", WeekID: w1.ID},
			{ID: "p-u2-w3", UserID: "u2", TeamID: "BOS", WeekID: w3.ID, IsSuperweek: true},
			{ID: "p-u3-w1", UserID: "u3", TeamID: "LAL", WeekID: w1.ID, IsSuperweek: true},
			{ID: "p-u3-w3", UserID: "u3", TeamID: "NYK", WeekID: w3.ID},
		},
	}
}

type scoringHarness struct {
	store    *memory.Store
	resolver *WeekResolver
	results  *GameResultService
	recalc   *RecalculationService
}

func newScoringHarness(t *testing.T, rules scoring.Rules, fixture memory.Fixture) *scoringHarness {
	t.Helper()

	store := memory.NewStore(&idgen.Sequence{Prefix: "gen-"})
	require.NoError(t, store.Seed(fixture))

	logger := logging.NewNop()
	resolver := NewWeekResolver(store, rules, nil, logger)
	return &scoringHarness{
		store:    store,
		resolver: resolver,
		results: NewGameResultService(store, resolver, GameResultConfig{
			Rules:   rules,
			Retry:   fastRetry(),
			Workers: 3,
		}, logger),
		recalc: NewRecalculationService(store, resolver, RecalculationConfig{Rules: rules, Workers: 2}, logger),
	}
}

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
}

func finalGame(externalID, home, away string, homeScore, awayScore int, date time.Time) game.Game {
	return game.Game{
		ExternalID: externalID,
		SeasonID:   testSeasonID,
		HomeTeamID: home,
		AwayTeamID: away,
		HomeScore:  game.IntPtr(homeScore),
		AwayScore:  game.IntPtr(awayScore),
		Status:     game.StatusFinal,
		Date:       date,
	}
}

func pickByID(t *testing.T, snap memory.Fixture, id string) pick.Pick {
	t.Helper()
	for _, p := range snap.Picks {
		if p.ID == id {
			return p
		}
	}
	t.Fatalf("pick %s not found", id)
	return pick.Pick{}
}

func userTotals(snap memory.Fixture) map[string]int {
	out := make(map[string]int, len(snap.Users))
	for _, u := range snap.Users {
		out[u.ID] = u.TotalPoints
	}
	return out
}

// requireConserved checks every user total equals the sum of its picks.
func requireConserved(t *testing.T, snap memory.Fixture) {
	t.Helper()
	sums := make(map[string]int)
	for _, p := range snap.Picks {
		sums[p.UserID] += p.PointsAwarded
	}
	for _, u := range snap.Users {
		if u.TotalPoints != sums[u.ID] {
			t.Fatalf("user %s total=%d, sum of picks=%d", u.ID, u.TotalPoints, sums[u.ID])
		}
	}
}
