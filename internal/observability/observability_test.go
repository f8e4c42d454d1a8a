package observability

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/daklaw/nba-pickem-backend/internal/config"
	"github.com/daklaw/nba-pickem-backend/internal/domain/scoring"
	"github.com/daklaw/nba-pickem-backend/internal/platform/logging"
)

func TestInitUptrace_Disabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
	}{
		{name: "flag off", cfg: config.Config{UptraceEnabled: false, UptraceDSN: "https://token@api.uptrace.dev/1"}},
		{name: "missing dsn", cfg: config.Config{UptraceEnabled: true}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.ServiceName = "nba-pickem-api"
			tc.cfg.ServiceVersion = "dev"
			tc.cfg.AppEnv = config.EnvDev

			shutdown, err := InitUptrace(tc.cfg, logging.NewNop())
			if err != nil {
				t.Fatalf("init uptrace: %v", err)
			}
			if err := shutdown(context.Background()); err != nil {
				t.Fatalf("shutdown uptrace: %v", err)
			}
		})
	}
}

func TestStartPprofServer_Disabled(t *testing.T) {
	srv, err := StartPprofServer(config.Config{PprofEnabled: false}, logging.NewNop())
	if err != nil {
		t.Fatalf("start pprof: %v", err)
	}
	if srv != nil {
		t.Fatalf("expected no server when disabled")
	}
	if err := StopPprofServer(nil, nil, 0); err != nil {
		t.Fatalf("stop nil pprof server: %v", err)
	}
}

func TestInitPyroscope_Disabled(t *testing.T) {
	stop, err := InitPyroscope(config.Config{PyroscopeEnabled: false}, nil)
	if err != nil {
		t.Fatalf("init pyroscope: %v", err)
	}
	if err := stop(); err != nil {
		t.Fatalf("stop pyroscope: %v", err)
	}
}

func TestProfileTagsAndAppName(t *testing.T) {
	cfg := config.Config{
		AppEnv:         "dev",
		ServiceName:    "nba-pickem",
		ServiceVersion: "v1",
		StoreDriver:    config.StoreDriverPostgres,
		Scoring:        config.ScoringConfig{Rules: scoring.Rules{ShootTheMoonScope: scoring.ScopeSeason}},
	}

	tags := profileTags(cfg)
	if tags["store_driver"] != "postgres" || tags["moon_scope"] != "season" || tags["service"] != "nba-pickem" {
		t.Fatalf("unexpected tags: %v", tags)
	}
	if got := profileAppName(cfg); got != "nba-pickem" {
		t.Fatalf("app name fallback=%q", got)
	}
	cfg.PyroscopeAppName = " scoring-worker "
	if got := profileAppName(cfg); got != "scoring-worker" {
		t.Fatalf("app name=%q", got)
	}

	cfg.Scoring.Rules.ShootTheMoonScope = ""
	if _, ok := profileTags(cfg)["moon_scope"]; ok {
		t.Fatalf("empty scope should not be tagged")
	}
}

func TestScoringResourceAttributes(t *testing.T) {
	cfg := config.Config{
		StoreDriver: config.StoreDriverMemory,
		Scoring: config.ScoringConfig{
			Location: time.UTC,
			Rules:    scoring.Rules{ShootTheMoonScope: scoring.ScopeWeek, ClampEarlyDates: true},
		},
	}

	got := make(map[string]string)
	for _, kv := range scoringResourceAttributes(cfg) {
		got[string(kv.Key)] = kv.Value.Emit()
	}
	want := map[string]string{
		"nba_pickem.store_driver":         "memory",
		"nba_pickem.shoot_the_moon_scope": "week",
		"nba_pickem.clamp_early_dates":    "true",
		"nba_pickem.timezone":             "UTC",
	}
	if len(got) != len(want) {
		t.Fatalf("unexpected attributes: %v", got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("attribute %s=%q want=%q", k, got[k], v)
		}
	}
}

func TestStartPprofServer_ServesIndex(t *testing.T) {
	cfg := config.Config{PprofEnabled: true, PprofAddr: "127.0.0.1:0"}
	srv, err := StartPprofServer(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("start pprof: %v", err)
	}
	t.Cleanup(func() {
		if err := StopPprofServer(srv, logging.NewNop(), time.Second); err != nil {
			t.Errorf("stop pprof: %v", err)
		}
	})

	resp, err := http.Get("http://" + srv.Addr + "/debug/pprof/")
	if err != nil {
		t.Fatalf("get pprof index: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestStartPprofServer_RequiresAddr(t *testing.T) {
	if _, err := StartPprofServer(config.Config{PprofEnabled: true}, logging.NewNop()); err == nil {
		t.Fatalf("expected error for empty PPROF_ADDR")
	}
}
