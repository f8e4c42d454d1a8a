package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/daklaw/nba-pickem-backend/internal/domain/scoring"
	"github.com/daklaw/nba-pickem-backend/internal/domain/week"
	"github.com/daklaw/nba-pickem-backend/internal/platform/cache"
	"github.com/daklaw/nba-pickem-backend/internal/platform/logging"
)

// WeekResolver maps a calendar date to the scoring week of a season,
// creating the week on first use. Anchors and weeks never change once
// stored, so both are cached after the owning transaction commits.
type WeekResolver struct {
	store   scoring.Store
	rules   scoring.Rules
	anchors *cache.Typed[time.Time]
	weeks   *cache.Typed[week.Week]
	logger  *logging.Logger
}

// NewWeekResolver builds a resolver; a nil store disables caching.
func NewWeekResolver(store scoring.Store, rules scoring.Rules, cacheStore *cache.Store, logger *logging.Logger) *WeekResolver {
	if logger == nil {
		logger = logging.Default()
	}
	r := &WeekResolver{
		store:  store,
		rules:  rules,
		logger: logger.Named("week_resolver"),
	}
	if cacheStore != nil {
		r.anchors = cache.NewTyped[time.Time](cacheStore, "season_anchor:")
		r.weeks = cache.NewTyped[week.Week](cacheStore, "season_week:")
	}
	return r
}

// ResolveWeek returns the week of seasonID that contains date.
func (r *WeekResolver) ResolveWeek(ctx context.Context, seasonID string, date time.Time) (week.Week, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WeekResolver.ResolveWeek")
	defer span.End()

	seasonID = strings.TrimSpace(seasonID)
	if seasonID == "" {
		return week.Week{}, fmt.Errorf("%w: season id is required", ErrInvalidInput)
	}
	if date.IsZero() {
		return week.Week{}, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	var out week.Week
	var session *resolveSession
	err := r.store.WithinTx(ctx, func(ctx context.Context, repos scoring.Repositories) error {
		session = r.session(repos)
		w, err := session.Week(ctx, seasonID, date)
		if err != nil {
			return err
		}
		out = w
		return nil
	})
	if err != nil {
		return week.Week{}, err
	}
	session.commit(ctx)
	return out, nil
}

func (r *WeekResolver) session(repos scoring.Repositories) *resolveSession {
	return &resolveSession{
		resolver: r,
		repos:    repos,
		anchors:  make(map[string]time.Time),
		weeks:    make(map[string]week.Week),
	}
}

func weekCacheKey(seasonID string, number int) string {
	return fmt.Sprintf("%s:%d", seasonID, number)
}

// resolveSession resolves weeks inside one transaction and remembers what it
// saw so the resolver cache is only fed with committed rows.
type resolveSession struct {
	resolver *WeekResolver
	repos    scoring.Repositories
	anchors  map[string]time.Time
	weeks    map[string]week.Week
}

// Anchor returns the season anchor, deriving it from the earliest game and
// storing it when the season has none yet.
func (s *resolveSession) Anchor(ctx context.Context, seasonID string) (time.Time, error) {
	if anchor, ok := s.anchors[seasonID]; ok {
		return anchor, nil
	}
	if anchor, ok := s.resolver.anchors.Get(ctx, seasonID); ok {
		s.anchors[seasonID] = anchor
		return anchor, nil
	}

	item, exists, err := s.repos.Seasons.GetByID(ctx, seasonID)
	if err != nil {
		return time.Time{}, crerr.Mark(crerr.Wrapf(err, "load season %s", seasonID), scoring.ErrWeekResolutionFailed)
	}
	if !exists {
		return time.Time{}, crerr.Mark(crerr.Wrapf(ErrNotFound, "season %s", seasonID), scoring.ErrWeekResolutionFailed)
	}

	if item.HasAnchor() {
		anchor := week.Date(*item.AnchorDate)
		s.anchors[seasonID] = anchor
		return anchor, nil
	}

	earliest, found, err := s.repos.Games.EarliestDate(ctx, seasonID)
	if err != nil {
		return time.Time{}, crerr.Mark(crerr.Wrapf(err, "load earliest game of season %s", seasonID), scoring.ErrWeekResolutionFailed)
	}
	if !found {
		return time.Time{}, crerr.Wrapf(scoring.ErrWeekResolutionFailed, "season %s has no games to anchor weeks on", seasonID)
	}

	anchor, err := s.repos.Seasons.SetAnchorIfUnset(ctx, seasonID, earliest)
	if err != nil {
		return time.Time{}, crerr.Mark(crerr.Wrapf(err, "store anchor of season %s", seasonID), scoring.ErrWeekResolutionFailed)
	}
	anchor = week.Date(anchor)
	s.anchors[seasonID] = anchor
	s.resolver.logger.InfoContext(ctx, "season anchor set", "season_id", seasonID, "anchor", anchor.Format(time.DateOnly))
	return anchor, nil
}

// Number returns the week number of date, applying the early date rule.
func (s *resolveSession) Number(seasonID string, anchor, date time.Time) (int, error) {
	number := week.NumberFor(anchor, date)
	if number >= 1 {
		return number, nil
	}
	if !s.resolver.rules.ClampEarlyDates {
		return 0, crerr.Wrapf(scoring.ErrInvalidDate, "date %s precedes season %s anchor %s",
			date.Format(time.DateOnly), seasonID, anchor.Format(time.DateOnly))
	}
	return 1, nil
}

func (s *resolveSession) Week(ctx context.Context, seasonID string, date time.Time) (week.Week, error) {
	anchor, err := s.Anchor(ctx, seasonID)
	if err != nil {
		return week.Week{}, err
	}
	number, err := s.Number(seasonID, anchor, date)
	if err != nil {
		return week.Week{}, err
	}

	key := weekCacheKey(seasonID, number)
	if w, ok := s.weeks[key]; ok {
		return w, nil
	}
	if w, ok := s.resolver.weeks.Get(ctx, key); ok {
		s.weeks[key] = w
		return w, nil
	}

	w, err := s.repos.Weeks.GetOrCreate(ctx, week.New(seasonID, anchor, number))
	if err != nil {
		return week.Week{}, crerr.Mark(crerr.Wrapf(err, "resolve week %d of season %s", number, seasonID), scoring.ErrWeekResolutionFailed)
	}
	s.weeks[key] = w
	return w, nil
}

func (s *resolveSession) commit(ctx context.Context) {
	if s == nil {
		return
	}
	for seasonID, anchor := range s.anchors {
		s.resolver.anchors.Set(ctx, seasonID, anchor)
	}
	for key, w := range s.weeks {
		s.resolver.weeks.Set(ctx, key, w)
	}
}
