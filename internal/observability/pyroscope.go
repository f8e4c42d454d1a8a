package observability

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/grafana/pyroscope-go"

	"github.com/daklaw/nba-pickem-backend/internal/config"
	"github.com/daklaw/nba-pickem-backend/internal/platform/logging"
)

var scoringProfileTypes = []pyroscope.ProfileType{
	pyroscope.ProfileCPU,
	pyroscope.ProfileAllocSpace,
	pyroscope.ProfileInuseSpace,
	pyroscope.ProfileGoroutines,
	pyroscope.ProfileMutexCount,
	pyroscope.ProfileMutexDuration,
	pyroscope.ProfileBlockCount,
	pyroscope.ProfileBlockDuration,
}

// InitPyroscope starts continuous profiling when PYROSCOPE_ENABLED is set.
// The returned stop func is always non-nil on success.
func InitPyroscope(cfg config.Config, logger *logging.Logger) (func() error, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if !cfg.PyroscopeEnabled {
		logger.Info("pyroscope disabled", "reason", "PYROSCOPE_ENABLED=false")
		return func() error { return nil }, nil
	}

	appName := profileAppName(cfg)
	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   appName,
		ServerAddress:     cfg.PyroscopeServerAddress,
		AuthToken:         cfg.PyroscopeAuthToken,
		BasicAuthUser:     cfg.PyroscopeBasicAuthUser,
		BasicAuthPassword: cfg.PyroscopeBasicAuthPassword,
		UploadRate:        cfg.PyroscopeUploadRate,
		Tags:              profileTags(cfg),
		ProfileTypes:      scoringProfileTypes,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "start pyroscope profiler %q", appName)
	}

	logger.Info("pyroscope enabled", "server_address", cfg.PyroscopeServerAddress, "application", appName)
	return func() error {
		if err := profiler.Stop(); err != nil {
			return errors.Wrap(err, "stop pyroscope profiler")
		}
		return nil
	}, nil
}

func profileAppName(cfg config.Config) string {
	if name := strings.TrimSpace(cfg.PyroscopeAppName); name != "" {
		return name
	}
	return cfg.ServiceName
}

func profileTags(cfg config.Config) map[string]string {
	tags := map[string]string{
		"env":          cfg.AppEnv,
		"service":      cfg.ServiceName,
		"version":      cfg.ServiceVersion,
		"store_driver": cfg.StoreDriver,
	}
	if scope := string(cfg.Scoring.Rules.ShootTheMoonScope); scope != "" {
		tags["moon_scope"] = scope
	}
	return tags
}
