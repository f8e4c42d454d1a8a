package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/lib/pq"

	"github.com/daklaw/nba-pickem-backend/internal/domain/game"
	"github.com/daklaw/nba-pickem-backend/internal/domain/scoring"
	"github.com/daklaw/nba-pickem-backend/internal/infrastructure/repository/memory"
)

func TestMarkConflict(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		conflict bool
	}{
		{name: "serialization failure", err: &pq.Error{Code: pqSerializationFailure}, conflict: true},
		{name: "deadlock", err: fmt.Errorf("update pick: %w", &pq.Error{Code: pqDeadlockDetected}), conflict: true},
		{name: "lock not available", err: &pq.Error{Code: pqLockNotAvailable}, conflict: true},
		{name: "unique violation", err: &pq.Error{Code: "23505"}},
		{name: "plain error", err: errors.New("boom")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := markConflict(tc.err)
			if scoring.IsRetryable(got) != tc.conflict {
				t.Fatalf("unexpected retryable=%v for %v", !tc.conflict, tc.err)
			}
			if !errors.Is(got, tc.err) && !crerr.Is(got, tc.err) {
				t.Fatalf("marked error lost its cause: %v", got)
			}
		})
	}

	if markConflict(nil) != nil {
		t.Fatalf("nil must stay nil")
	}
}

func TestIsNotFound(t *testing.T) {
	if !isNotFound(fmt.Errorf("select game: %w", sql.ErrNoRows)) {
		t.Fatalf("expected wrapped sql.ErrNoRows to be not found")
	}
	if isNotFound(errors.New("other")) {
		t.Fatalf("unexpected not found")
	}
}

func TestGameModelRoundTrip(t *testing.T) {
	startsAt := time.Date(2024, 11, 6, 0, 30, 0, 0, time.UTC)
	in := game.Game{
		ID:           "g1",
		ExternalID:   "0022400061",
		SeasonID:     "s1",
		HomeTeamID:   "BOS",
		AwayTeamID:   "NYK",
		HomeScore:    game.IntPtr(110),
		Status:       "Final",
		WinnerTeamID: "",
		Date:         time.Date(2024, 11, 5, 19, 0, 0, 0, time.UTC),
		StartsAt:     &startsAt,
	}

	model := gameModelFrom(in)
	if model.Status != game.StatusFinal {
		t.Fatalf("status not normalized: %q", model.Status)
	}
	if model.AwayScore.Valid || model.WinnerTeamID.Valid || model.WeekID.Valid {
		t.Fatalf("empty values must map to NULL: %+v", model)
	}
	if !model.GameDate.Equal(time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("game date not truncated: %s", model.GameDate)
	}

	out := model.toDomain()
	if out.HomeScore == nil || *out.HomeScore != 110 || out.AwayScore != nil {
		t.Fatalf("unexpected scores: %+v", out)
	}
	if out.StartsAt == nil || !out.StartsAt.Equal(startsAt) {
		t.Fatalf("unexpected starts at: %v", out.StartsAt)
	}
}

func TestSeasonModelAnchor(t *testing.T) {
	withAnchor := seasonTableModel{ID: "s1", AnchorDate: sql.NullTime{Time: time.Date(2024, 10, 22, 0, 0, 0, 0, time.UTC), Valid: true}}
	if s := withAnchor.toDomain(); !s.HasAnchor() {
		t.Fatalf("expected anchor to be mapped")
	}
	if s := (seasonTableModel{ID: "s2"}).toDomain(); s.HasAnchor() {
		t.Fatalf("expected no anchor for NULL column")
	}
}

func TestFixtureTeams(t *testing.T) {
	got := fixtureTeams(memory.DemoFixture())
	want := []string{"BOS", "DET", "LAL", "MIN", "NYK"}
	if len(got) != len(want) {
		t.Fatalf("unexpected teams: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected teams: %v", got)
		}
	}
}
