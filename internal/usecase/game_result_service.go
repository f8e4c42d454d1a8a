package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"

	"github.com/daklaw/nba-pickem-backend/internal/domain/game"
	"github.com/daklaw/nba-pickem-backend/internal/domain/pick"
	"github.com/daklaw/nba-pickem-backend/internal/domain/scoring"
	"github.com/daklaw/nba-pickem-backend/internal/domain/week"
	"github.com/daklaw/nba-pickem-backend/internal/platform/logging"
	"github.com/daklaw/nba-pickem-backend/internal/platform/resilience"
)

const defaultApplyWorkers = 4

type GameResultConfig struct {
	Rules    scoring.Rules
	Location *time.Location
	Retry    resilience.RetryConfig
	Workers  int
}

// GameResultService applies final game results to the picks they affect.
type GameResultService struct {
	store    scoring.Store
	resolver *WeekResolver
	rules    scoring.Rules
	location *time.Location
	retry    resilience.RetryConfig
	workers  int
	logger   *logging.Logger
}

func NewGameResultService(store scoring.Store, resolver *WeekResolver, cfg GameResultConfig, logger *logging.Logger) *GameResultService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultApplyWorkers
	}
	return &GameResultService{
		store:    store,
		resolver: resolver,
		rules:    cfg.Rules,
		location: cfg.Location,
		retry:    resilience.NormalizeRetryConfig(cfg.Retry),
		workers:  cfg.Workers,
		logger:   logger.Named("game_result"),
	}
}

// ApplyGameResult records a final game and brings every affected pick and
// user total in line with it. Applying the same result twice writes nothing.
func (s *GameResultService) ApplyGameResult(ctx context.Context, in game.Game) (scoring.ApplyResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameResultService.ApplyGameResult")
	defer span.End()

	item, err := s.normalizeGame(in)
	if err != nil {
		return scoring.ApplyResult{}, err
	}
	if !item.IsFinal() {
		return scoring.ApplyResult{}, crerr.Wrapf(scoring.ErrGameNotFinal, "game %s has status %q", item.ExternalID, item.Status)
	}
	winner, loser, ok := item.WinnerLoser()
	if !ok {
		return scoring.ApplyResult{}, crerr.Wrapf(scoring.ErrInvalidGameState, "game %s needs two unequal scores", item.ExternalID)
	}
	item.WinnerTeamID = winner

	onRetry := func(err error, wait time.Duration) {
		s.logger.WarnContext(ctx, "retrying game result after conflict",
			"external_id", item.ExternalID,
			"wait", wait.String(),
			"error", err,
		)
	}
	result, err := resilience.Retry(ctx, s.retry, scoring.IsRetryable, onRetry, func() (scoring.ApplyResult, error) {
		return s.apply(ctx, item, loser)
	})
	if err != nil {
		return scoring.ApplyResult{}, err
	}

	s.logger.InfoContext(ctx, "game result applied",
		"external_id", result.ExternalID,
		"season_id", item.SeasonID,
		"week", result.WeekNumber,
		"winner_team_id", result.WinnerTeamID,
		"picks_updated", result.PicksUpdated,
		"points_delta", result.PointsAwarded,
	)
	return result, nil
}

func (s *GameResultService) apply(ctx context.Context, item game.Game, loser string) (scoring.ApplyResult, error) {
	result := scoring.ApplyResult{
		ExternalID:   item.ExternalID,
		WinnerTeamID: item.WinnerTeamID,
		LoserTeamID:  loser,
	}

	var session *resolveSession
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos scoring.Repositories) error {
		session = s.resolver.session(repos)

		stored, err := repos.Games.Upsert(ctx, item)
		if err != nil {
			return crerr.Wrapf(err, "upsert game %s", item.ExternalID)
		}

		w, err := session.Week(ctx, stored.SeasonID, stored.Date)
		if err != nil {
			return err
		}
		if stored.WeekID != w.ID {
			stored.WeekID = w.ID
			if stored, err = repos.Games.Upsert(ctx, stored); err != nil {
				return crerr.Wrapf(err, "set week of game %s", item.ExternalID)
			}
		}
		result.GameID = stored.ID
		result.WeekNumber = w.Number

		teams := []string{stored.WinnerTeamID, loser}
		picks, err := repos.Picks.ListForUpdate(ctx, pick.Filter{
			SeasonID:            stored.SeasonID,
			WeekID:              w.ID,
			TeamIDs:             teams,
			IncludeShootTheMoon: s.rules.ShootTheMoonScope == scoring.ScopeSeason,
		})
		if err != nil {
			return crerr.Wrapf(err, "lock picks for game %s", item.ExternalID)
		}
		if len(picks) == 0 {
			return nil
		}

		games, err := repos.Games.ListBySeasonTeams(ctx, stored.SeasonID, teams)
		if err != nil {
			return crerr.Wrapf(err, "list games for teams %s", strings.Join(teams, ","))
		}
		anchor, err := session.Anchor(ctx, stored.SeasonID)
		if err != nil {
			return err
		}
		ledger := scoring.NewLedger(anchor, s.rules.ClampEarlyDates, games)

		users := make(map[string]struct{}, len(picks))
		deltas := make(map[string]int, len(picks))
		for _, p := range picks {
			users[p.UserID] = struct{}{}

			eval := ledger.Evaluate(p, s.rules.ShootTheMoonScope)
			if eval.Points == p.PointsAwarded && eval.Record.Wins == p.Wins && eval.Record.Losses == p.Losses {
				continue
			}
			if _, err := repos.Picks.UpdateScore(ctx, pick.Score{
				PickID:          p.ID,
				PointsAwarded:   eval.Points,
				Wins:            eval.Record.Wins,
				Losses:          eval.Record.Losses,
				ExpectedVersion: p.Version,
			}); err != nil {
				return crerr.Wrapf(err, "score pick %s", p.ID)
			}

			delta := eval.Points - p.PointsAwarded
			if delta != 0 {
				deltas[p.UserID] += delta
			}
			result.PicksUpdated++
			result.PointsAwarded += delta
		}
		result.AffectedUserCount = len(users)

		if len(deltas) == 0 {
			return nil
		}
		if err := repos.Users.ApplyPointDeltas(ctx, deltas); err != nil {
			return crerr.Wrapf(err, "apply user point deltas for game %s", item.ExternalID)
		}
		return nil
	})
	if err != nil {
		return scoring.ApplyResult{}, err
	}

	session.commit(ctx)
	return result, nil
}

// UpdateGameScore marks an ingested game final with the given score and
// applies it.
func (s *GameResultService) UpdateGameScore(ctx context.Context, externalID string, homeScore, awayScore int) (scoring.ApplyResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameResultService.UpdateGameScore")
	defer span.End()

	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return scoring.ApplyResult{}, fmt.Errorf("%w: external game id is required", ErrInvalidInput)
	}
	if homeScore < 0 || awayScore < 0 {
		return scoring.ApplyResult{}, fmt.Errorf("%w: scores must not be negative", ErrInvalidInput)
	}

	var item game.Game
	var exists bool
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos scoring.Repositories) error {
		var err error
		item, exists, err = repos.Games.GetByExternalID(ctx, externalID)
		return err
	})
	if err != nil {
		return scoring.ApplyResult{}, fmt.Errorf("get game %s: %w", externalID, err)
	}
	if !exists {
		return scoring.ApplyResult{}, fmt.Errorf("%w: game %s", ErrNotFound, externalID)
	}

	item.HomeScore = game.IntPtr(homeScore)
	item.AwayScore = game.IntPtr(awayScore)
	item.Status = game.StatusFinal
	return s.ApplyGameResult(ctx, item)
}

type batchOutcome struct {
	index  int
	result scoring.ApplyResult
	err    error
}

// ApplyGameResults applies games concurrently. A game that fails is reported
// in Failures and does not stop the others.
func (s *GameResultService) ApplyGameResults(ctx context.Context, games []game.Game) (scoring.BatchApplyResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameResultService.ApplyGameResults")
	defer span.End()

	out := scoring.BatchApplyResult{Applied: make([]scoring.ApplyResult, 0, len(games))}
	if len(games) == 0 {
		return out, nil
	}

	workerCount := s.workers
	if workerCount > len(games) {
		workerCount = len(games)
	}
	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return scoring.BatchApplyResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	outcomes := make(chan batchOutcome, len(games))
	var workers sync.WaitGroup
	for i, item := range games {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			res, err := s.ApplyGameResult(ctx, item)
			outcomes <- batchOutcome{index: i, result: res, err: err}
		}); err != nil {
			workers.Done()
			outcomes <- batchOutcome{index: i, err: fmt.Errorf("submit game to worker pool: %w", err)}
		}
	}

	workers.Wait()
	close(outcomes)

	rows := make([]batchOutcome, 0, len(games))
	for row := range outcomes {
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].index < rows[j].index
	})

	for _, row := range rows {
		if row.err != nil {
			out.Failures = append(out.Failures, scoring.BatchApplyFailure{
				ExternalID: strings.TrimSpace(games[row.index].ExternalID),
				Error:      row.err.Error(),
			})
			continue
		}
		out.Applied = append(out.Applied, row.result)
	}

	s.logger.InfoContext(ctx, "game results batch applied",
		"games", len(games),
		"applied", len(out.Applied),
		"failed", len(out.Failures),
	)
	return out, nil
}

func (s *GameResultService) normalizeGame(in game.Game) (game.Game, error) {
	item := in
	item.ID = strings.TrimSpace(item.ID)
	item.ExternalID = strings.TrimSpace(item.ExternalID)
	item.SeasonID = strings.TrimSpace(item.SeasonID)
	item.HomeTeamID = strings.TrimSpace(item.HomeTeamID)
	item.AwayTeamID = strings.TrimSpace(item.AwayTeamID)
	item.Status = game.NormalizeStatus(item.Status)

	switch {
	case item.ExternalID == "":
		return game.Game{}, fmt.Errorf("%w: external game id is required", ErrInvalidInput)
	case item.SeasonID == "":
		return game.Game{}, fmt.Errorf("%w: season id is required", ErrInvalidInput)
	case item.HomeTeamID == "" || item.AwayTeamID == "":
		return game.Game{}, fmt.Errorf("%w: both teams are required", ErrInvalidInput)
	case item.HomeTeamID == item.AwayTeamID:
		return game.Game{}, fmt.Errorf("%w: a team cannot play itself", ErrInvalidInput)
	}

	switch {
	case !item.Date.IsZero():
		item.Date = week.Date(item.Date)
	case item.StartsAt != nil:
		item.Date = week.DateIn(*item.StartsAt, s.location)
	default:
		return game.Game{}, fmt.Errorf("%w: game %s has no date", ErrInvalidInput, item.ExternalID)
	}
	return item, nil
}
