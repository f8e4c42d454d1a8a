package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/daklaw/nba-pickem-backend/internal/domain/game"
	"github.com/daklaw/nba-pickem-backend/internal/domain/scoring"
	"github.com/daklaw/nba-pickem-backend/internal/infrastructure/repository/memory"
	scoringmock "github.com/daklaw/nba-pickem-backend/internal/mocks/domain/scoring"
	idgen "github.com/daklaw/nba-pickem-backend/internal/platform/id"
	"github.com/daklaw/nba-pickem-backend/internal/platform/logging"
)

func TestGameResultService_SuperweekWinInWeekThree(t *testing.T) {
	h := newScoringHarness(t, scoring.DefaultRules(), seasonFixture(nil))
	ctx := context.Background()

	got, err := h.results.ApplyGameResult(ctx, finalGame("0022400158", "BOS", "NYK", 110, 98, time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	require.Equal(t, "g3", got.GameID)
	require.Equal(t, "BOS", got.WinnerTeamID)
	require.Equal(t, "NYK", got.LoserTeamID)
	require.Equal(t, 3, got.WeekNumber)
	require.Equal(t, 2, got.PointsAwarded)
	require.Equal(t, 2, got.PicksUpdated)
	require.Equal(t, 2, got.AffectedUserCount)

	snap := h.store.Snapshot()
	superweek := pickByID(t, snap, "p-u2-w3")
	require.Equal(t, 2, superweek.PointsAwarded)
	require.Equal(t, 1, superweek.Wins)
	loser := pickByID(t, snap, "p-u3-w3")
	require.Equal(t, 0, loser.PointsAwarded)
	require.Equal(t, 1, loser.Losses)

	require.Equal(t, map[string]int{"u1": 0, "u2": 2, "u3": 0}, userTotals(snap))
	require.NotNil(t, snap.Seasons[0].AnchorDate)
	require.True(t, snap.Seasons[0].AnchorDate.Equal(openingNight))
	requireConserved(t, snap)
}

func TestGameResultService_ReapplyIsIdempotent(t *testing.T) {
	h := newScoringHarness(t, scoring.DefaultRules(), seasonFixture(nil))
	ctx := context.Background()
	item := finalGame("0022400061", "BOS", "NYK", 112, 104, day(0))

	first, err := h.results.ApplyGameResult(ctx, item)
	require.NoError(t, err)
	require.Equal(t, 1, first.PointsAwarded)
	before := h.store.Snapshot()

	second, err := h.results.ApplyGameResult(ctx, item)
	require.NoError(t, err)
	require.Zero(t, second.PointsAwarded)
	require.Zero(t, second.PicksUpdated)
	require.Equal(t, before, h.store.Snapshot())
}

func TestGameResultService_CorrectedScoreMovesPoints(t *testing.T) {
	h := newScoringHarness(t, scoring.DefaultRules(), seasonFixture(nil))
	ctx := context.Background()

	_, err := h.results.ApplyGameResult(ctx, finalGame("0022400061", "BOS", "NYK", 112, 104, day(0)))
	require.NoError(t, err)
	corrected, err := h.results.ApplyGameResult(ctx, finalGame("0022400061", "BOS", "NYK", 101, 104, day(0)))
	require.NoError(t, err)
	require.Equal(t, "NYK", corrected.WinnerTeamID)
	require.Zero(t, corrected.PointsAwarded)

	snap := h.store.Snapshot()
	require.Equal(t, map[string]int{"u1": 0, "u2": 1, "u3": 0}, userTotals(snap))
	require.Equal(t, 1, pickByID(t, snap, "p-u1-w1").Losses)
	require.Zero(t, pickByID(t, snap, "p-u1-w1").Wins)
	requireConserved(t, snap)
}

func TestGameResultService_RejectsWithoutStateChange(t *testing.T) {
	tie := finalGame("0022400061", "BOS", "NYK", 100, 100, day(0))
	missing := finalGame("0022400061", "BOS", "NYK", 100, 0, day(0))
	missing.AwayScore = nil
	pending := finalGame("0022400061", "BOS", "NYK", 100, 90, day(0))
	pending.Status = "in_progress"
	noDate := finalGame("0022400061", "BOS", "NYK", 100, 90, time.Time{})

	tests := []struct {
		name string
		in   game.Game
		want error
	}{
		{name: "tie", in: tie, want: scoring.ErrInvalidGameState},
		{name: "missing score", in: missing, want: scoring.ErrInvalidGameState},
		{name: "not final", in: pending, want: scoring.ErrGameNotFinal},
		{name: "no date", in: noDate, want: ErrInvalidInput},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newScoringHarness(t, scoring.DefaultRules(), seasonFixture(nil))
			before := h.store.Snapshot()

			_, err := h.results.ApplyGameResult(context.Background(), tc.in)
			if !crerr.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			require.Equal(t, before, h.store.Snapshot())
		})
	}
}

func TestGameResultService_DateFromTipOffInLeagueTime(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	h := newScoringHarness(t, scoring.DefaultRules(), seasonFixture(nil))
	h.results.location = loc

	// 10:30pm Eastern on Nov 4 is already Nov 5 in UTC, which would be week 3.
	tipOff := time.Date(2024, 11, 5, 3, 30, 0, 0, time.UTC)
	item := finalGame("0022400158", "BOS", "NYK", 110, 98, time.Time{})
	item.StartsAt = &tipOff

	got, err := h.results.ApplyGameResult(context.Background(), item)
	require.NoError(t, err)
	require.Equal(t, 2, got.WeekNumber)
}

func TestGameResultService_ShootTheMoonSeasonScope(t *testing.T) {
	h := newScoringHarness(t, scoring.DefaultRules(), seasonFixture(nil))
	ctx := context.Background()

	_, err := h.results.ApplyGameResult(ctx, finalGame("0022400166", "DET", "BOS", 99, 120, day(15)))
	require.NoError(t, err)
	moon := pickByID(t, h.store.Snapshot(), "p-u1-w3")
	require.Zero(t, moon.PointsAwarded, "DET still has a pending game this season")
	require.Equal(t, 1, moon.Losses)

	_, err = h.results.ApplyGameResult(ctx, finalGame("0022400081", "DET", "LAL", 95, 101, day(3)))
	require.NoError(t, err)

	snap := h.store.Snapshot()
	require.Equal(t, 2, pickByID(t, snap, "p-u1-w3").PointsAwarded)
	require.Equal(t, 2, pickByID(t, snap, "p-u3-w1").PointsAwarded)
	require.Equal(t, 2, pickByID(t, snap, "p-u2-w3").PointsAwarded)
	require.Equal(t, map[string]int{"u1": 2, "u2": 2, "u3": 2}, userTotals(snap))
	requireConserved(t, snap)
}

func TestGameResultService_ShootTheMoonLostOnWin(t *testing.T) {
	h := newScoringHarness(t, scoring.DefaultRules(), seasonFixture(nil))
	ctx := context.Background()

	_, err := h.results.ApplyGameResult(ctx, finalGame("0022400081", "DET", "LAL", 95, 101, day(3)))
	require.NoError(t, err)
	_, err = h.results.ApplyGameResult(ctx, finalGame("0022400166", "DET", "BOS", 99, 120, day(15)))
	require.NoError(t, err)
	require.Equal(t, 2, pickByID(t, h.store.Snapshot(), "p-u1-w3").PointsAwarded)

	// a corrected result hands DET a win and the moon pick is worth nothing
	_, err = h.results.ApplyGameResult(ctx, finalGame("0022400081", "DET", "LAL", 105, 101, day(3)))
	require.NoError(t, err)

	snap := h.store.Snapshot()
	require.Zero(t, pickByID(t, snap, "p-u1-w3").PointsAwarded)
	require.Zero(t, userTotals(snap)["u1"])
	requireConserved(t, snap)
}

func TestGameResultService_ShootTheMoonWeekScope(t *testing.T) {
	rules := scoring.DefaultRules()
	rules.ShootTheMoonScope = scoring.ScopeWeek
	h := newScoringHarness(t, rules, seasonFixture(nil))

	_, err := h.results.ApplyGameResult(context.Background(), finalGame("0022400166", "DET", "BOS", 99, 120, day(15)))
	require.NoError(t, err)

	snap := h.store.Snapshot()
	require.Equal(t, 2, pickByID(t, snap, "p-u1-w3").PointsAwarded)
	requireConserved(t, snap)
}

func TestGameResultService_EarlyDate(t *testing.T) {
	anchor := openingNight

	t.Run("clamped to week one", func(t *testing.T) {
		fixture := seasonFixture(nil)
		fixture.Seasons[0].AnchorDate = &anchor
		h := newScoringHarness(t, scoring.DefaultRules(), fixture)
		got, err := h.results.ApplyGameResult(context.Background(), finalGame("preseason-1", "BOS", "MIA", 120, 90, day(-5)))
		require.NoError(t, err)
		require.Equal(t, 1, got.WeekNumber)
		require.Equal(t, 1, pickByID(t, h.store.Snapshot(), "p-u1-w1").PointsAwarded)
	})

	t.Run("rejected without clamping", func(t *testing.T) {
		rules := scoring.DefaultRules()
		rules.ClampEarlyDates = false
		fixture := seasonFixture(nil)
		fixture.Seasons[0].AnchorDate = &anchor
		h := newScoringHarness(t, rules, fixture)
		before := h.store.Snapshot()

		_, err := h.results.ApplyGameResult(context.Background(), finalGame("preseason-1", "BOS", "MIA", 120, 90, day(-5)))
		if !crerr.Is(err, scoring.ErrInvalidDate) {
			t.Fatalf("expected ErrInvalidDate, got %v", err)
		}
		require.Equal(t, before, h.store.Snapshot())
	})
}

func TestGameResultService_UpdateGameScore(t *testing.T) {
	h := newScoringHarness(t, scoring.DefaultRules(), seasonFixture(nil))
	ctx := context.Background()

	got, err := h.results.UpdateGameScore(ctx, "0022400072", 118, 120)
	require.NoError(t, err)
	require.Equal(t, "MIN", got.WinnerTeamID)
	require.Equal(t, 1, got.WeekNumber)

	snap := h.store.Snapshot()
	require.Equal(t, 1, pickByID(t, snap, "p-u3-w1").Losses)
	for _, g := range snap.Games {
		if g.ExternalID == "0022400072" {
			require.Equal(t, game.StatusFinal, g.Status)
			require.Equal(t, "MIN", g.WinnerTeamID)
			require.Equal(t, "week-1", g.WeekID)
		}
	}

	_, err = h.results.UpdateGameScore(ctx, "unknown", 1, 0)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	_, err = h.results.UpdateGameScore(ctx, " ", 1, 0)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestGameResultService_ApplyGameResultsReportsFailures(t *testing.T) {
	h := newScoringHarness(t, scoring.DefaultRules(), seasonFixture(nil))

	got, err := h.results.ApplyGameResults(context.Background(), []game.Game{
		finalGame("0022400061", "BOS", "NYK", 112, 104, day(0)),
		finalGame("0022400072", "LAL", "MIN", 100, 100, day(2)),
		finalGame("0022400158", "BOS", "NYK", 110, 98, day(14)),
		finalGame("0022400081", "DET", "LAL", 95, 101, day(3)),
	})
	require.NoError(t, err)

	require.Len(t, got.Applied, 3)
	require.Equal(t, "0022400061", got.Applied[0].ExternalID)
	require.Equal(t, "0022400158", got.Applied[1].ExternalID)
	require.Equal(t, "0022400081", got.Applied[2].ExternalID)
	require.Len(t, got.Failures, 1)
	require.Equal(t, "0022400072", got.Failures[0].ExternalID)

	snap := h.store.Snapshot()
	require.Equal(t, map[string]int{"u1": 1, "u2": 2, "u3": 2}, userTotals(snap))
	requireConserved(t, snap)
}

func TestGameResultService_RetriesConflicts(t *testing.T) {
	mem := memory.NewStore(&idgen.Sequence{Prefix: "gen-"})
	require.NoError(t, mem.Seed(seasonFixture(nil)))

	store := scoringmock.NewStore(t)
	store.On("WithinTx", mock.Anything, mock.Anything).
		Return(crerr.Wrap(scoring.ErrConcurrentUpdateConflict, "could not serialize access")).
		Twice()
	store.On("WithinTx", mock.Anything, mock.Anything).
		Return(func(ctx context.Context, fn func(context.Context, scoring.Repositories) error) error {
			return mem.WithinTx(ctx, fn)
		}).
		Once()

	rules := scoring.DefaultRules()
	resolver := NewWeekResolver(mem, rules, nil, logging.NewNop())
	service := NewGameResultService(store, resolver, GameResultConfig{Rules: rules, Retry: fastRetry()}, logging.NewNop())

	got, err := service.ApplyGameResult(context.Background(), finalGame("0022400061", "BOS", "NYK", 112, 104, day(0)))
	require.NoError(t, err)
	require.Equal(t, 1, got.PointsAwarded)
	requireConserved(t, mem.Snapshot())
}

func TestGameResultService_DoesNotRetryOtherErrors(t *testing.T) {
	errDown := errors.New("connection refused")
	store := scoringmock.NewStore(t)
	store.On("WithinTx", mock.Anything, mock.Anything).Return(errDown).Once()

	rules := scoring.DefaultRules()
	service := NewGameResultService(store, NewWeekResolver(store, rules, nil, nil), GameResultConfig{Rules: rules, Retry: fastRetry()}, nil)

	_, err := service.ApplyGameResult(context.Background(), finalGame("0022400061", "BOS", "NYK", 112, 104, day(0)))
	require.ErrorIs(t, err, errDown)
}

func TestGameResultService_GivesUpAfterRepeatedConflicts(t *testing.T) {
	store := scoringmock.NewStore(t)
	store.On("WithinTx", mock.Anything, mock.Anything).
		Return(crerr.Wrap(scoring.ErrConcurrentUpdateConflict, "deadlock detected")).
		Times(3)

	rules := scoring.DefaultRules()
	service := NewGameResultService(store, NewWeekResolver(store, rules, nil, nil), GameResultConfig{Rules: rules, Retry: fastRetry()}, nil)

	_, err := service.ApplyGameResult(context.Background(), finalGame("0022400061", "BOS", "NYK", 112, 104, day(0)))
	if !scoring.IsRetryable(err) {
		t.Fatalf("expected conflict error, got %v", err)
	}
}
