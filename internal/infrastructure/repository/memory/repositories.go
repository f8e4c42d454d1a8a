package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/daklaw/nba-pickem-backend/internal/domain/game"
	"github.com/daklaw/nba-pickem-backend/internal/domain/pick"
	"github.com/daklaw/nba-pickem-backend/internal/domain/scoring"
	"github.com/daklaw/nba-pickem-backend/internal/domain/season"
	"github.com/daklaw/nba-pickem-backend/internal/domain/user"
	"github.com/daklaw/nba-pickem-backend/internal/domain/week"
	idgen "github.com/daklaw/nba-pickem-backend/internal/platform/id"
)

// The repositories below run while Store.mu is held, so they do not lock.

type seasonRepository struct {
	state *state
}

func (r *seasonRepository) GetByID(_ context.Context, seasonID string) (season.Season, bool, error) {
	s, ok := r.state.seasons[seasonID]
	return s, ok, nil
}

func (r *seasonRepository) List(_ context.Context) ([]season.Season, error) {
	out := make([]season.Season, 0, len(r.state.seasons))
	for _, s := range r.state.seasons {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *seasonRepository) SetAnchorIfUnset(_ context.Context, seasonID string, anchor time.Time) (time.Time, error) {
	s, ok := r.state.seasons[seasonID]
	if !ok {
		return time.Time{}, fmt.Errorf("set season anchor: season %s does not exist", seasonID)
	}
	if !s.HasAnchor() {
		date := week.Date(anchor)
		s.AnchorDate = &date
		r.state.seasons[seasonID] = s
	}
	return *s.AnchorDate, nil
}

type weekRepository struct {
	state *state
	ids   idgen.Generator
}

func (r *weekRepository) GetOrCreate(_ context.Context, w week.Week) (week.Week, error) {
	key := weekKey{seasonID: w.SeasonID, number: w.Number}
	if id, ok := r.state.weekByKey[key]; ok {
		return r.state.weeks[id], nil
	}

	id, err := r.ids.NewID()
	if err != nil {
		return week.Week{}, fmt.Errorf("generate week id: %w", err)
	}
	w.ID = id
	w.StartDate = week.Date(w.StartDate)
	w.EndDate = week.Date(w.EndDate)
	r.state.weeks[id] = w
	r.state.weekByKey[key] = id
	return w, nil
}

func (r *weekRepository) ListBySeason(_ context.Context, seasonID string) ([]week.Week, error) {
	out := make([]week.Week, 0)
	for _, w := range r.state.weeks {
		if w.SeasonID == seasonID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

type gameRepository struct {
	state *state
	ids   idgen.Generator
}

func (r *gameRepository) GetByExternalID(_ context.Context, externalID string) (game.Game, bool, error) {
	id, ok := r.state.gameByExt[externalID]
	if !ok {
		return game.Game{}, false, nil
	}
	return cloneGame(r.state.games[id]), true, nil
}

func (r *gameRepository) Upsert(_ context.Context, g game.Game) (game.Game, error) {
	if strings.TrimSpace(g.ExternalID) == "" {
		return game.Game{}, fmt.Errorf("upsert game: external id is required")
	}
	if id, ok := r.state.gameByExt[g.ExternalID]; ok {
		g.ID = id
	} else {
		id, err := r.ids.NewID()
		if err != nil {
			return game.Game{}, fmt.Errorf("generate game id: %w", err)
		}
		g.ID = id
	}

	g.Status = game.NormalizeStatus(g.Status)
	g.Date = week.Date(g.Date)
	r.state.games[g.ID] = cloneGame(g)
	r.state.gameByExt[g.ExternalID] = g.ID
	return cloneGame(g), nil
}

func (r *gameRepository) EarliestDate(_ context.Context, seasonID string) (time.Time, bool, error) {
	var earliest time.Time
	found := false
	for _, g := range r.state.games {
		if g.SeasonID != seasonID {
			continue
		}
		if !found || g.Date.Before(earliest) {
			earliest = g.Date
			found = true
		}
	}
	return earliest, found, nil
}

func (r *gameRepository) ListBySeasonTeams(_ context.Context, seasonID string, teamIDs []string) ([]game.Game, error) {
	teams := make(map[string]struct{}, len(teamIDs))
	for _, id := range teamIDs {
		teams[id] = struct{}{}
	}
	return r.list(func(g game.Game) bool {
		if g.SeasonID != seasonID {
			return false
		}
		_, home := teams[g.HomeTeamID]
		_, away := teams[g.AwayTeamID]
		return home || away
	}), nil
}

func (r *gameRepository) ListBySeason(_ context.Context, seasonID string) ([]game.Game, error) {
	return r.list(func(g game.Game) bool { return g.SeasonID == seasonID }), nil
}

func (r *gameRepository) list(keep func(game.Game) bool) []game.Game {
	out := make([]game.Game, 0)
	for _, g := range r.state.games {
		if keep(g) {
			out = append(out, cloneGame(g))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ExternalID < out[j].ExternalID
	})
	return out
}

type pickRepository struct {
	state *state
}

func (r *pickRepository) ListForUpdate(_ context.Context, filter pick.Filter) ([]pick.Pick, error) {
	teams := make(map[string]struct{}, len(filter.TeamIDs))
	for _, id := range filter.TeamIDs {
		teams[id] = struct{}{}
	}
	return r.list(func(p pick.Pick) bool {
		if p.SeasonID != filter.SeasonID {
			return false
		}
		if _, ok := teams[p.TeamID]; !ok {
			return false
		}
		return p.WeekID == filter.WeekID || (filter.IncludeShootTheMoon && p.IsShootTheMoon)
	}), nil
}

func (r *pickRepository) ListBySeasonForUpdate(_ context.Context, seasonID string) ([]pick.Pick, error) {
	return r.list(func(p pick.Pick) bool { return p.SeasonID == seasonID }), nil
}

func (r *pickRepository) list(keep func(pick.Pick) bool) []pick.Pick {
	out := make([]pick.Pick, 0)
	for _, p := range r.state.picks {
		if !keep(p) {
			continue
		}
		if w, ok := r.state.weeks[p.WeekID]; ok {
			p.WeekNumber = w.Number
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *pickRepository) UpdateScore(_ context.Context, score pick.Score) (int64, error) {
	p, ok := r.state.picks[score.PickID]
	if !ok || p.Version != score.ExpectedVersion {
		return 0, crerr.Wrapf(scoring.ErrConcurrentUpdateConflict, "pick %s changed since version %d", score.PickID, score.ExpectedVersion)
	}
	p.PointsAwarded = score.PointsAwarded
	p.Wins = score.Wins
	p.Losses = score.Losses
	p.Version++
	r.state.picks[p.ID] = p
	return p.Version, nil
}

type userRepository struct {
	state *state
}

func (r *userRepository) GetByID(_ context.Context, userID string) (user.User, bool, error) {
	u, ok := r.state.users[userID]
	return u, ok, nil
}

func (r *userRepository) ApplyPointDeltas(_ context.Context, deltas map[string]int) error {
	for userID, delta := range deltas {
		if delta == 0 {
			continue
		}
		if _, ok := r.state.users[userID]; !ok {
			return fmt.Errorf("apply user delta: user %s does not exist", userID)
		}
	}
	for userID, delta := range deltas {
		if delta == 0 {
			continue
		}
		u := r.state.users[userID]
		u.TotalPoints += delta
		u.Version++
		r.state.users[userID] = u
	}
	return nil
}

func (r *userRepository) RecomputeTotals(_ context.Context, userIDs []string) (int, error) {
	sums := make(map[string]int, len(r.state.users))
	for _, p := range r.state.picks {
		sums[p.UserID] += p.PointsAwarded
	}

	targets := userIDs
	if targets == nil {
		targets = make([]string, 0, len(r.state.users))
		for id := range r.state.users {
			targets = append(targets, id)
		}
	}

	changed := 0
	for _, id := range targets {
		u, ok := r.state.users[id]
		if !ok || u.TotalPoints == sums[id] {
			continue
		}
		u.TotalPoints = sums[id]
		u.Version++
		r.state.users[id] = u
		changed++
	}
	return changed, nil
}
