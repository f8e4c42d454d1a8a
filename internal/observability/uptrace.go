package observability

import (
	"context"
	"strings"

	"github.com/uptrace/uptrace-go/uptrace"
	"go.opentelemetry.io/otel/attribute"

	"github.com/daklaw/nba-pickem-backend/internal/config"
	"github.com/daklaw/nba-pickem-backend/internal/platform/logging"
)

// InitUptrace configures global OpenTelemetry providers for Uptrace.
func InitUptrace(cfg config.Config, logger *logging.Logger) (func(context.Context) error, error) {
	if logger == nil {
		logger = logging.Default()
	}
	noop := func(context.Context) error { return nil }

	if !cfg.UptraceEnabled {
		logger.Info("uptrace disabled", "reason", "UPTRACE_ENABLED=false")
		return noop, nil
	}
	if strings.TrimSpace(cfg.UptraceDSN) == "" {
		logger.Info("uptrace disabled", "reason", "UPTRACE_DSN empty")
		return noop, nil
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.UptraceDSN),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(cfg.ServiceVersion),
		uptrace.WithDeploymentEnvironment(cfg.AppEnv),
		uptrace.WithResourceAttributes(scoringResourceAttributes(cfg)...),
	)

	logger.Info("uptrace enabled",
		"service_name", cfg.ServiceName,
		"service_version", cfg.ServiceVersion,
		"environment", cfg.AppEnv,
		"store_driver", cfg.StoreDriver,
		"capture_request_body", cfg.UptraceCaptureRequestBody,
	)
	return uptrace.Shutdown, nil
}

// scoringResourceAttributes tags telemetry with the scoring rules in effect.
func scoringResourceAttributes(cfg config.Config) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("nba_pickem.store_driver", cfg.StoreDriver),
		attribute.String("nba_pickem.shoot_the_moon_scope", string(cfg.Scoring.Rules.ShootTheMoonScope)),
		attribute.Bool("nba_pickem.clamp_early_dates", cfg.Scoring.Rules.ClampEarlyDates),
	}
	if cfg.Scoring.Location != nil {
		attrs = append(attrs, attribute.String("nba_pickem.timezone", cfg.Scoring.Location.String()))
	}
	return attrs
}
