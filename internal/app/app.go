package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/daklaw/nba-pickem-backend/internal/config"
	"github.com/daklaw/nba-pickem-backend/internal/domain/scoring"
	"github.com/daklaw/nba-pickem-backend/internal/infrastructure/repository/memory"
	"github.com/daklaw/nba-pickem-backend/internal/infrastructure/repository/postgres"
	"github.com/daklaw/nba-pickem-backend/internal/interfaces/httpapi"
	"github.com/daklaw/nba-pickem-backend/internal/platform/cache"
	idgen "github.com/daklaw/nba-pickem-backend/internal/platform/id"
	"github.com/daklaw/nba-pickem-backend/internal/platform/logging"
	"github.com/daklaw/nba-pickem-backend/internal/platform/resilience"
	"github.com/daklaw/nba-pickem-backend/internal/usecase"
)

// Store is a scoring store that can also answer health probes.
type Store interface {
	scoring.Store
	Ping(ctx context.Context) error
}

// Services is the wired scoring engine shared by the HTTP server and the CLI.
type Services struct {
	Store         Store
	WeekResolver  *usecase.WeekResolver
	GameResults   *usecase.GameResultService
	Recalculation *usecase.RecalculationService

	closeFn func() error
}

// Close releases the database handle, if any.
func (s *Services) Close() error {
	if s == nil || s.closeFn == nil {
		return nil
	}
	return s.closeFn()
}

// NewStore builds the store selected by STORE_DRIVER. The memory store is
// seeded with the demo league.
func NewStore(cfg config.Config, logger *logging.Logger) (Store, func() error, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		store := memory.NewStore(idgen.NewUUIDGenerator())
		if err := store.Seed(memory.DemoFixture()); err != nil {
			return nil, nil, fmt.Errorf("seed memory store: %w", err)
		}
		logger.Info("using in-memory store", "season_id", memory.DemoSeasonID)
		return store, func() error { return nil }, nil
	case config.StoreDriverPostgres:
		db, err := OpenDB(cfg)
		if err != nil {
			return nil, nil, err
		}
		if cfg.DBBootstrapSeed {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			err := postgres.BootstrapSeed(ctx, db, memory.DemoFixture())
			cancel()
			if err != nil {
				_ = db.Close()
				return nil, nil, fmt.Errorf("bootstrap seed: %w", err)
			}
			logger.Info("bootstrap seed checked", "season_id", memory.DemoSeasonID)
		}
		logger.Info("using postgres store", "db", dbNameFromURL(cfg.DBURL))
		return postgres.NewStore(db, idgen.NewUUIDGenerator()), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}

// NewServices wires the scoring usecases on top of store.
func NewServices(cfg config.Config, store Store, logger *logging.Logger) *Services {
	if logger == nil {
		logger = logging.Default()
	}

	var cacheStore *cache.Store
	if cfg.CacheEnabled {
		cacheStore = cache.NewStore(cfg.CacheTTL)
	}

	rules := cfg.Scoring.Rules
	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = cfg.Scoring.ConflictMaxRetries + 1

	resolver := usecase.NewWeekResolver(store, rules, cacheStore, logger)
	return &Services{
		Store:        store,
		WeekResolver: resolver,
		GameResults: usecase.NewGameResultService(store, resolver, usecase.GameResultConfig{
			Rules:    rules,
			Location: cfg.Scoring.Location,
			Retry:    retry,
			Workers:  cfg.Scoring.ApplyWorkers,
		}, logger),
		Recalculation: usecase.NewRecalculationService(store, resolver, usecase.RecalculationConfig{
			Rules:   rules,
			Workers: cfg.Scoring.RecalculateWorkers,
		}, logger),
	}
}

// Build opens the configured store and wires the services on it.
func Build(cfg config.Config, logger *logging.Logger) (*Services, error) {
	if logger == nil {
		logger = logging.Default()
	}

	store, closeFn, err := NewStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	services := NewServices(cfg, store, logger)
	services.closeFn = closeFn
	return services, nil
}

func NewHTTPServer(cfg config.Config, services *Services, logger *logging.Logger) (*http.Server, error) {
	if services == nil {
		return nil, fmt.Errorf("services cannot be nil")
	}

	handler := httpapi.NewHandler(
		services.GameResults,
		services.Recalculation,
		services.WeekResolver,
		services.Store,
		logger.Named("httpapi"),
	)
	router := httpapi.NewRouter(handler, logger, httpapi.RouterConfig{
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		InternalJobToken:    cfg.InternalJobToken,
		CaptureRequestBody:  cfg.UptraceEnabled && cfg.UptraceCaptureRequestBody,
		RequestBodyMaxBytes: cfg.UptraceRequestBodyMaxBytes,
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, nil
}
