package main

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/daklaw/nba-pickem-backend/internal/config"
	"github.com/daklaw/nba-pickem-backend/internal/platform/logging"
)

var errUsage = errors.New("usage")

// migrator is the part of *migrate.Migrate the commands drive.
type migrator interface {
	Up() error
	Steps(n int) error
	Migrate(version uint) error
	Force(version int) error
	Version() (uint, bool, error)
}

func main() {
	logger := logging.New(logging.Options{
		Level:   logging.ParseLevel(os.Getenv("APP_LOG_LEVEL")),
		Service: "nba-pickem-migration",
		Writer:  os.Stderr,
	})
	defer func() {
		_ = logger.Sync()
	}()

	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(2)
	}
	if err := config.LoadDotEnv(); err != nil {
		logger.Error("load env", "error", err)
		os.Exit(1)
	}

	dbURL := strings.TrimSpace(os.Getenv("DB_URL"))
	if dbURL == "" {
		logger.Error("DB_URL is required")
		os.Exit(1)
	}
	migrationsDir, err := resolveMigrationsDir()
	if err != nil {
		logger.Error("resolve migrations dir", "error", err)
		os.Exit(1)
	}

	sourceURL := "file://" + filepath.ToSlash(migrationsDir)
	m, err := migrate.New(sourceURL, withPreparedBinaryFlag(dbURL, envBool("DB_DISABLE_PREPARED_BINARY_RESULT")))
	if err != nil {
		logger.Error("create migrator", "source", sourceURL, "error", err)
		os.Exit(1)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			logger.Warn("close migration source", "error", srcErr)
		}
		if dbErr != nil {
			logger.Warn("close migration db", "error", dbErr)
		}
	}()

	if err := run(m, os.Args[1:], os.Stdout, logger); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
			printUsage(os.Stderr)
			os.Exit(2)
		}
		logger.Error("migration failed", "command", os.Args[1], "source", sourceURL, "error", err)
		os.Exit(1)
	}
}

func run(m migrator, args []string, out io.Writer, logger *logging.Logger) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}

	cmd := strings.ToLower(strings.TrimSpace(args[0]))
	args = args[1:]
	switch cmd {
	case "up":
		if err := ignoreNoChange(m.Up(), logger); err != nil {
			return err
		}
		logger.Info("migrations applied")
	case "down":
		steps, err := parseSteps(args)
		if err != nil {
			return err
		}
		if err := ignoreNoChange(m.Steps(-steps), logger); err != nil {
			return err
		}
		logger.Info("migrations rolled back", "steps", steps)
	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Fprintln(out, "version: none")
			fmt.Fprintln(out, "dirty: false")
			return nil
		}
		if err != nil {
			return fmt.Errorf("read version: %w", err)
		}
		fmt.Fprintf(out, "version: %d\n", version)
		fmt.Fprintf(out, "dirty: %t\n", dirty)
	case "force":
		if len(args) == 0 {
			return fmt.Errorf("%w: force requires a version argument", errUsage)
		}
		version, err := parseVersion(args[0])
		if err != nil {
			return err
		}
		if err := m.Force(version); err != nil {
			return fmt.Errorf("force version %d: %w", version, err)
		}
		logger.Info("migration version forced", "version", version)
	case "goto", "migrate":
		if len(args) == 0 {
			return fmt.Errorf("%w: %s requires a target version argument", errUsage, cmd)
		}
		target, err := parseTarget(args[0])
		if err != nil {
			return err
		}
		if err := ignoreNoChange(m.Migrate(target), logger); err != nil {
			return err
		}
		logger.Info("migrated", "version", target)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
	return nil
}

func ignoreNoChange(err error, logger *logging.Logger) error {
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migration changes")
		return nil
	}
	return err
}

func parseSteps(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	steps, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return 0, fmt.Errorf("invalid down steps %q: %w", args[0], err)
	}
	if steps <= 0 {
		return 0, fmt.Errorf("down steps must be > 0")
	}
	return steps, nil
}

func parseVersion(raw string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", raw, err)
	}
	if value < 0 {
		return 0, fmt.Errorf("version must be >= 0")
	}
	return value, nil
}

func parseTarget(raw string) (uint, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid target version %q: %w", raw, err)
	}
	return uint(value), nil
}

func resolveMigrationsDir() (string, error) {
	candidates := []string{
		os.Getenv("MIGRATIONS_DIR"),
		"./db/migrations",
		"/app/db/migrations",
	}
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			return abs, nil
		}
	}
	return "", fmt.Errorf("migration directory not found (checked MIGRATIONS_DIR, ./db/migrations, /app/db/migrations)")
}

func withPreparedBinaryFlag(raw string, enabled bool) string {
	if !enabled {
		return raw
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" {
		return raw
	}
	query := parsed.Query()
	if query.Get("disable_prepared_binary_result") != "" {
		return raw
	}
	query.Set("disable_prepared_binary_result", "yes")
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

func envBool(key string) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	return err == nil && value
}

func printUsage(w io.Writer) {
	name := filepath.Base(os.Args[0])
	fmt.Fprintf(w, "usage: %s <up|down|version|force|goto> [args]\n", name)
	fmt.Fprintln(w, "examples:")
	fmt.Fprintf(w, "  %s up\n", name)
	fmt.Fprintf(w, "  %s down 1\n", name)
	fmt.Fprintf(w, "  %s version\n", name)
	fmt.Fprintf(w, "  %s force 1729555200\n", name)
	fmt.Fprintf(w, "  %s goto 1729555200\n", name)
}
