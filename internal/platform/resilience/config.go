package resilience

import "time"

type RetryConfig struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     4,
		InitialInterval: 25 * time.Millisecond,
		MaxInterval:     500 * time.Millisecond,
	}
}

func NormalizeRetryConfig(cfg RetryConfig) RetryConfig {
	defaults := DefaultRetryConfig()
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = defaults.InitialInterval
	}
	if cfg.MaxInterval < cfg.InitialInterval {
		cfg.MaxInterval = defaults.MaxInterval
		if cfg.MaxInterval < cfg.InitialInterval {
			cfg.MaxInterval = cfg.InitialInterval
		}
	}
	return cfg
}
