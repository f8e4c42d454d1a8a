package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc/pool"

	"github.com/daklaw/nba-pickem-backend/internal/domain/game"
	"github.com/daklaw/nba-pickem-backend/internal/domain/pick"
	"github.com/daklaw/nba-pickem-backend/internal/domain/scoring"
	"github.com/daklaw/nba-pickem-backend/internal/domain/season"
	"github.com/daklaw/nba-pickem-backend/internal/platform/logging"
	"github.com/daklaw/nba-pickem-backend/internal/platform/resilience"
)

const defaultRecalculateWorkers = 4

type RecalculationConfig struct {
	Rules   scoring.Rules
	Workers int
}

// RecalculationService rebuilds every pick and user total from the full set
// of final games.
type RecalculationService struct {
	store    scoring.Store
	resolver *WeekResolver
	rules    scoring.Rules
	workers  int
	flight   resilience.SingleFlight
	logger   *logging.Logger
}

func NewRecalculationService(store scoring.Store, resolver *WeekResolver, cfg RecalculationConfig, logger *logging.Logger) *RecalculationService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultRecalculateWorkers
	}
	return &RecalculationService{
		store:    store,
		resolver: resolver,
		rules:    cfg.Rules,
		workers:  cfg.Workers,
		logger:   logger.Named("recalculation"),
	}
}

// seasonPlan is what one season contributes to the staging pass.
type seasonPlan struct {
	order  int
	season season.Season
	anchor time.Time
	games  []game.Game
	picks  []pick.Pick
}

type stagedPick struct {
	pick pick.Pick
	eval scoring.Evaluation
}

type seasonStage struct {
	order int
	picks []stagedPick
}

// RecalculateAll rescores every season. Concurrent callers share one run,
// which rolls back only once every caller waiting on it has given up.
func (s *RecalculationService) RecalculateAll(ctx context.Context) (scoring.RecalculateResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RecalculationService.RecalculateAll")
	defer span.End()

	value, err, joined := s.flight.DoShared(ctx, "recalculate:all", func(runCtx context.Context) (any, error) {
		return s.run(runCtx, "")
	})
	if err != nil {
		return scoring.RecalculateResult{}, err
	}
	if joined {
		s.logger.DebugContext(ctx, "joined in-flight recalculation")
	}
	return value.(scoring.RecalculateResult), nil
}

// RecalculateSeason rescores one season and reports every pick it changed.
func (s *RecalculationService) RecalculateSeason(ctx context.Context, seasonID string) (scoring.RecalculateResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RecalculationService.RecalculateSeason")
	defer span.End()

	seasonID = strings.TrimSpace(seasonID)
	if seasonID == "" {
		return scoring.RecalculateResult{}, fmt.Errorf("%w: season id is required", ErrInvalidInput)
	}

	value, err, _ := s.flight.DoShared(ctx, "recalculate:season:"+seasonID, func(runCtx context.Context) (any, error) {
		return s.run(runCtx, seasonID)
	})
	if err != nil {
		return scoring.RecalculateResult{}, err
	}
	return value.(scoring.RecalculateResult), nil
}

// run replays games and overwrites scores inside a single transaction. An
// empty seasonID covers every season. Deadlines come from ctx only.
func (s *RecalculationService) run(ctx context.Context, seasonID string) (scoring.RecalculateResult, error) {
	start := time.Now()
	var result scoring.RecalculateResult
	var session *resolveSession
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos scoring.Repositories) error {
		result = scoring.RecalculateResult{}
		session = s.resolver.session(repos)

		seasons, err := s.loadSeasons(ctx, repos, seasonID)
		if err != nil {
			return err
		}

		plans := make([]seasonPlan, 0, len(seasons))
		for i, item := range seasons {
			plan, err := s.replaySeason(ctx, repos, session, item, &result)
			if err != nil {
				return err
			}
			plan.order = i
			plans = append(plans, plan)
		}
		result.SeasonsProcessed = len(plans)

		stages, err := s.stage(ctx, plans)
		if err != nil {
			return err
		}

		userIDs := make(map[string]struct{})
		for _, stage := range stages {
			for _, staged := range stage.picks {
				if err := ctx.Err(); err != nil {
					return err
				}
				userIDs[staged.pick.UserID] = struct{}{}
				if err := s.writePick(ctx, repos, staged, seasonID != "", &result); err != nil {
					return err
				}
			}
		}

		var scope []string
		if seasonID != "" {
			scope = make([]string, 0, len(userIDs))
			for id := range userIDs {
				scope = append(scope, id)
			}
			sort.Strings(scope)
		}
		changed, err := repos.Users.RecomputeTotals(ctx, scope)
		if err != nil {
			return crerr.Wrap(err, "recompute user totals")
		}
		result.UsersAffected = len(userIDs)
		result.UsersChanged = changed
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "recalculation rolled back", "season_id", seasonID, "error", err)
		return scoring.RecalculateResult{}, err
	}
	session.commit(ctx)

	s.logger.InfoContext(ctx, "recalculation committed",
		"season_id", seasonID,
		"seasons", result.SeasonsProcessed,
		"games_processed", result.GamesProcessed,
		"games_skipped", result.GamesSkipped,
		"picks_updated", result.PicksUpdated,
		"users_affected", result.UsersAffected,
		"users_changed", result.UsersChanged,
		"total_points", result.TotalPointsAwarded,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func (s *RecalculationService) loadSeasons(ctx context.Context, repos scoring.Repositories, seasonID string) ([]season.Season, error) {
	if seasonID == "" {
		seasons, err := repos.Seasons.List(ctx)
		if err != nil {
			return nil, crerr.Wrap(err, "list seasons")
		}
		return seasons, nil
	}

	item, exists, err := repos.Seasons.GetByID(ctx, seasonID)
	if err != nil {
		return nil, crerr.Wrapf(err, "get season %s", seasonID)
	}
	if !exists {
		return nil, fmt.Errorf("%w: season %s", ErrNotFound, seasonID)
	}
	return []season.Season{item}, nil
}

// replaySeason walks the season's games in date order, resolving the week of
// every final game and persisting its winner. Games that cannot be scored
// are recorded as failures and left out of the plan.
func (s *RecalculationService) replaySeason(
	ctx context.Context,
	repos scoring.Repositories,
	session *resolveSession,
	item season.Season,
	result *scoring.RecalculateResult,
) (seasonPlan, error) {
	plan := seasonPlan{season: item}

	games, err := repos.Games.ListBySeason(ctx, item.ID)
	if err != nil {
		return seasonPlan{}, crerr.Wrapf(err, "list games of season %s", item.ID)
	}

	if len(games) > 0 || item.HasAnchor() {
		if plan.anchor, err = session.Anchor(ctx, item.ID); err != nil {
			return seasonPlan{}, err
		}
	}

	plan.games = make([]game.Game, 0, len(games))
	for _, g := range games {
		if err := ctx.Err(); err != nil {
			return seasonPlan{}, err
		}
		if !g.IsFinal() {
			plan.games = append(plan.games, g)
			continue
		}

		winner, _, ok := g.WinnerLoser()
		if !ok {
			s.skipGame(result, g, "game is final without two unequal scores")
			continue
		}
		w, err := session.Week(ctx, item.ID, g.Date)
		if err != nil {
			if crerr.Is(err, scoring.ErrInvalidDate) {
				s.skipGame(result, g, err.Error())
				continue
			}
			return seasonPlan{}, err
		}

		if g.WinnerTeamID != winner || g.WeekID != w.ID {
			g.WinnerTeamID = winner
			g.WeekID = w.ID
			stored, err := repos.Games.Upsert(ctx, g)
			if err != nil {
				return seasonPlan{}, crerr.Wrapf(err, "persist result of game %s", g.ExternalID)
			}
			g = stored
		}
		plan.games = append(plan.games, g)
		result.GamesProcessed++
	}

	plan.picks, err = repos.Picks.ListBySeasonForUpdate(ctx, item.ID)
	if err != nil {
		return seasonPlan{}, crerr.Wrapf(err, "lock picks of season %s", item.ID)
	}
	return plan, nil
}

func (s *RecalculationService) skipGame(result *scoring.RecalculateResult, g game.Game, reason string) {
	result.GamesSkipped++
	result.Failures = append(result.Failures, scoring.GameFailure{
		GameID:     g.ID,
		ExternalID: g.ExternalID,
		Reason:     reason,
	})
}

// stage computes every pick target without writing anything.
func (s *RecalculationService) stage(ctx context.Context, plans []seasonPlan) ([]seasonStage, error) {
	p := pool.NewWithResults[seasonStage]().
		WithContext(ctx).
		WithCancelOnError().
		WithMaxGoroutines(s.workers)

	for _, plan := range plans {
		p.Go(func(ctx context.Context) (seasonStage, error) {
			ledger := scoring.NewLedger(plan.anchor, s.rules.ClampEarlyDates, plan.games)
			out := seasonStage{order: plan.order, picks: make([]stagedPick, 0, len(plan.picks))}
			for _, item := range plan.picks {
				if err := ctx.Err(); err != nil {
					return seasonStage{}, err
				}
				out.picks = append(out.picks, stagedPick{
					pick: item,
					eval: ledger.Evaluate(item, s.rules.ShootTheMoonScope),
				})
			}
			return out, nil
		})
	}

	stages, err := p.Wait()
	if err != nil {
		return nil, err
	}
	sort.Slice(stages, func(i, j int) bool {
		return stages[i].order < stages[j].order
	})
	return stages, nil
}

func (s *RecalculationService) writePick(
	ctx context.Context,
	repos scoring.Repositories,
	staged stagedPick,
	trackChanges bool,
	result *scoring.RecalculateResult,
) error {
	current := staged.pick
	eval := staged.eval
	result.TotalPointsAwarded += eval.Points

	if eval.Points == current.PointsAwarded && eval.Record.Wins == current.Wins && eval.Record.Losses == current.Losses {
		return nil
	}
	if _, err := repos.Picks.UpdateScore(ctx, pick.Score{
		PickID:          current.ID,
		PointsAwarded:   eval.Points,
		Wins:            eval.Record.Wins,
		Losses:          eval.Record.Losses,
		ExpectedVersion: current.Version,
	}); err != nil {
		return crerr.Wrapf(err, "overwrite score of pick %s", current.ID)
	}
	result.PicksUpdated++

	if trackChanges && eval.Points != current.PointsAwarded {
		result.Changes = append(result.Changes, scoring.PickChange{
			PickID:    current.ID,
			UserID:    current.UserID,
			TeamID:    current.TeamID,
			Week:      current.WeekNumber,
			OldPoints: current.PointsAwarded,
			NewPoints: eval.Points,
			Record:    eval.Record.String(),
		})
	}
	return nil
}
