package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/daklaw/nba-pickem-backend/internal/domain/game"
	"github.com/daklaw/nba-pickem-backend/internal/domain/pick"
	"github.com/daklaw/nba-pickem-backend/internal/domain/scoring"
	"github.com/daklaw/nba-pickem-backend/internal/domain/season"
	"github.com/daklaw/nba-pickem-backend/internal/domain/user"
	"github.com/daklaw/nba-pickem-backend/internal/domain/week"
	idgen "github.com/daklaw/nba-pickem-backend/internal/platform/id"
)

type weekKey struct {
	seasonID string
	number   int
}

type state struct {
	seasons   map[string]season.Season
	weeks     map[string]week.Week
	weekByKey map[weekKey]string
	games     map[string]game.Game
	gameByExt map[string]string
	picks     map[string]pick.Pick
	users     map[string]user.User
}

func newState() *state {
	return &state{
		seasons:   make(map[string]season.Season),
		weeks:     make(map[string]week.Week),
		weekByKey: make(map[weekKey]string),
		games:     make(map[string]game.Game),
		gameByExt: make(map[string]string),
		picks:     make(map[string]pick.Pick),
		users:     make(map[string]user.User),
	}
}

func (s *state) clone() *state {
	out := newState()
	for k, v := range s.seasons {
		if v.AnchorDate != nil {
			anchor := *v.AnchorDate
			v.AnchorDate = &anchor
		}
		out.seasons[k] = v
	}
	for k, v := range s.weeks {
		out.weeks[k] = v
	}
	for k, v := range s.weekByKey {
		out.weekByKey[k] = v
	}
	for k, v := range s.games {
		out.games[k] = cloneGame(v)
	}
	for k, v := range s.gameByExt {
		out.gameByExt[k] = v
	}
	for k, v := range s.picks {
		out.picks[k] = v
	}
	for k, v := range s.users {
		out.users[k] = v
	}
	return out
}

func cloneGame(g game.Game) game.Game {
	if g.HomeScore != nil {
		g.HomeScore = game.IntPtr(*g.HomeScore)
	}
	if g.AwayScore != nil {
		g.AwayScore = game.IntPtr(*g.AwayScore)
	}
	if g.StartsAt != nil {
		startsAt := *g.StartsAt
		g.StartsAt = &startsAt
	}
	return g
}

// Store is an in-process scoring.Store. Transactions are serialized and run
// against a copy of the data that replaces the original only on success.
type Store struct {
	mu    sync.Mutex
	state *state
	ids   idgen.Generator
}

func NewStore(ids idgen.Generator) *Store {
	if ids == nil {
		ids = idgen.NewUUIDGenerator()
	}
	return &Store{state: newState(), ids: ids}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos scoring.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	draft := s.state.clone()
	repos := scoring.Repositories{
		Seasons: &seasonRepository{state: draft},
		Weeks:   &weekRepository{state: draft, ids: s.ids},
		Games:   &gameRepository{state: draft, ids: s.ids},
		Picks:   &pickRepository{state: draft},
		Users:   &userRepository{state: draft},
	}
	if err := fn(ctx, repos); err != nil {
		return err
	}

	s.state = draft
	return nil
}

// Seed loads fixtures, enforcing the same uniqueness rules as the schema.
func (s *Store) Seed(f Fixture) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.state.clone()
	for _, item := range f.Seasons {
		draft.seasons[item.ID] = item
	}
	for _, item := range f.Users {
		draft.users[item.ID] = item
	}
	for _, item := range f.Weeks {
		key := weekKey{seasonID: item.SeasonID, number: item.Number}
		if existing, ok := draft.weekByKey[key]; ok && existing != item.ID {
			return fmt.Errorf("seed week %s: season %s already has week %d", item.ID, item.SeasonID, item.Number)
		}
		draft.weeks[item.ID] = item
		draft.weekByKey[key] = item.ID
	}
	for _, item := range f.Games {
		if item.ID == "" {
			return fmt.Errorf("seed game %s: id is required", item.ExternalID)
		}
		item.Status = game.NormalizeStatus(item.Status)
		item.Date = week.Date(item.Date)
		draft.games[item.ID] = cloneGame(item)
		draft.gameByExt[item.ExternalID] = item.ID
	}
	for _, item := range f.Picks {
		if err := draft.insertPick(item); err != nil {
			return err
		}
	}

	s.state = draft
	return nil
}

func (s *state) insertPick(p pick.Pick) error {
	w, ok := s.weeks[p.WeekID]
	if !ok {
		return fmt.Errorf("seed pick %s: unknown week %s", p.ID, p.WeekID)
	}
	if _, ok := s.users[p.UserID]; !ok {
		return fmt.Errorf("seed pick %s: unknown user %s", p.ID, p.UserID)
	}
	p.SeasonID = w.SeasonID
	p.WeekNumber = w.Number
	for _, existing := range s.picks {
		if existing.ID == p.ID || existing.UserID != p.UserID {
			continue
		}
		if existing.WeekID == p.WeekID {
			return fmt.Errorf("seed pick %s: user %s already picked week %d", p.ID, p.UserID, w.Number)
		}
		if existing.SeasonID == p.SeasonID && existing.TeamID == p.TeamID {
			return fmt.Errorf("seed pick %s: user %s already used team %s this season", p.ID, p.UserID, p.TeamID)
		}
	}
	if p.Version == 0 {
		p.Version = 1
	}
	s.picks[p.ID] = p
	return nil
}

// Snapshot returns a consistent copy of the stored data, ordered by id.
func (s *Store) Snapshot() Fixture {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out Fixture
	for _, v := range s.state.seasons {
		out.Seasons = append(out.Seasons, v)
	}
	for _, v := range s.state.weeks {
		out.Weeks = append(out.Weeks, v)
	}
	for _, v := range s.state.games {
		out.Games = append(out.Games, cloneGame(v))
	}
	for _, v := range s.state.picks {
		out.Picks = append(out.Picks, v)
	}
	for _, v := range s.state.users {
		out.Users = append(out.Users, v)
	}
	sort.Slice(out.Seasons, func(i, j int) bool { return out.Seasons[i].ID < out.Seasons[j].ID })
	sort.Slice(out.Weeks, func(i, j int) bool { return out.Weeks[i].ID < out.Weeks[j].ID })
	sort.Slice(out.Games, func(i, j int) bool { return out.Games[i].ID < out.Games[j].ID })
	sort.Slice(out.Picks, func(i, j int) bool { return out.Picks[i].ID < out.Picks[j].ID })
	sort.Slice(out.Users, func(i, j int) bool { return out.Users[i].ID < out.Users[j].ID })
	return out
}

func (s *Store) Ping(context.Context) error {
	return nil
}
