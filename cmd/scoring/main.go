package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/daklaw/nba-pickem-backend/internal/app"
	"github.com/daklaw/nba-pickem-backend/internal/config"
	"github.com/daklaw/nba-pickem-backend/internal/domain/week"
	"github.com/daklaw/nba-pickem-backend/internal/platform/logging"
)

var errUsage = errors.New("usage")

func main() {
	os.Exit(realMain(os.Args))
}

// realMain returns the process exit code so deferred cleanup runs first.
func realMain(args []string) int {
	if len(args) < 2 {
		printUsage(os.Stderr)
		return 2
	}

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "load env: %v\n", err)
		return 1
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}

	// Logs go to stderr so stdout carries only the command result.
	logger := logging.New(logging.Options{
		Level:       cfg.LogLevel,
		Service:     cfg.ServiceName + "-cli",
		Environment: cfg.AppEnv,
		Writer:      os.Stderr,
	})
	logging.SetDefault(logger)
	defer func() {
		_ = logger.Sync()
	}()

	services, err := app.Build(cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		return 1
	}
	defer func() {
		if err := services.Close(); err != nil {
			logger.Warn("close store", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, services, args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
			printUsage(os.Stderr)
			return 2
		}
		logger.Error("command failed", "command", args[1], "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, services *app.Services, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}

	cmd := strings.ToLower(strings.TrimSpace(args[0]))
	args = args[1:]

	var (
		result any
		err    error
	)
	switch cmd {
	case "update-game-score":
		if len(args) != 3 {
			return fmt.Errorf("%w: update-game-score requires <external-id> <home-score> <away-score>", errUsage)
		}
		home, parseErr := parseScore(args[1])
		if parseErr != nil {
			return parseErr
		}
		away, parseErr := parseScore(args[2])
		if parseErr != nil {
			return parseErr
		}
		result, err = services.GameResults.UpdateGameScore(ctx, args[0], home, away)
	case "recalculate-points":
		result, err = services.Recalculation.RecalculateAll(ctx)
	case "retabulate-season":
		if len(args) != 1 {
			return fmt.Errorf("%w: retabulate-season requires <season-id>", errUsage)
		}
		result, err = services.Recalculation.RecalculateSeason(ctx, args[0])
	case "resolve-week":
		if len(args) != 2 {
			return fmt.Errorf("%w: resolve-week requires <season-id> <YYYY-MM-DD>", errUsage)
		}
		date, parseErr := time.Parse(time.DateOnly, strings.TrimSpace(args[1]))
		if parseErr != nil {
			return fmt.Errorf("invalid date %q: %w", args[1], parseErr)
		}
		var resolved week.Week
		resolved, err = services.WeekResolver.ResolveWeek(ctx, args[0], date)
		result = resolved.Summary()
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", cmd, err)
	}

	payload, err := sonic.ConfigDefault.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s result: %w", cmd, err)
	}
	_, err = fmt.Fprintln(out, string(payload))
	return err
}

func parseScore(raw string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid score %q: %w", raw, err)
	}
	if value < 0 {
		return 0, fmt.Errorf("score must be >= 0, got %d", value)
	}
	return value, nil
}

func printUsage(w io.Writer) {
	name := filepath.Base(os.Args[0])
	fmt.Fprintf(w, "usage: %s <update-game-score|recalculate-points|retabulate-season|resolve-week> [args]\n", name)
	fmt.Fprintln(w, "examples:")
	fmt.Fprintf(w, "  %s update-game-score 0022400061 132 109\n", name)
	fmt.Fprintf(w, "  %s recalculate-points\n", name)
	fmt.Fprintf(w, "  %s retabulate-season nba-2024-25\n", name)
	fmt.Fprintf(w, "  %s resolve-week nba-2024-25 2024-11-05\n", name)
}
