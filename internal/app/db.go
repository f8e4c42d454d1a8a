package app

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/daklaw/nba-pickem-backend/internal/config"
)

const maxTracedQueryLength = 512

// OpenDB opens an instrumented postgres handle and reports pool stats.
func OpenDB(cfg config.Config) (*sqlx.DB, error) {
	dsn := postgresDSN(cfg.DBURL, cfg.DBDisablePreparedBinary, cfg.ServiceName)
	dbName := dbNameFromURL(dsn)

	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithDBName(dbName),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres %q: %w", dbName, err)
	}
	otelsql.ReportDBStatsMetrics(db.DB, otelsql.WithDBName(dbName))
	return db, nil
}

// postgresDSN fills in connection parameters the service relies on. Values
// already present in raw win. Key/value style DSNs are returned unchanged.
func postgresDSN(raw string, disablePreparedBinaryResult bool, applicationName string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed == nil || parsed.Scheme == "" {
		return raw
	}

	query := parsed.Query()
	changed := false
	setDefault := func(key, value string) {
		if value == "" || query.Get(key) != "" {
			return
		}
		query.Set(key, value)
		changed = true
	}
	if disablePreparedBinaryResult {
		setDefault("disable_prepared_binary_result", "yes")
	}
	setDefault("application_name", strings.TrimSpace(applicationName))

	if !changed {
		return raw
	}
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

func dbNameFromURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if parsed, err := url.Parse(trimmed); err == nil && parsed.Scheme != "" {
		if name := strings.TrimSpace(strings.TrimPrefix(parsed.Path, "/")); name != "" {
			return name
		}
	}

	for _, token := range strings.Fields(trimmed) {
		name, ok := strings.CutPrefix(token, "dbname=")
		if !ok {
			continue
		}
		if name = strings.Trim(strings.TrimSpace(name), `"'`); name != "" {
			return name
		}
	}
	return ""
}

// formatDBQueryForTrace collapses whitespace and caps the statement length
// recorded on spans.
func formatDBQueryForTrace(query string) string {
	normalized := strings.Join(strings.Fields(query), " ")
	if len(normalized) <= maxTracedQueryLength {
		return normalized
	}
	return normalized[:maxTracedQueryLength] + "..."
}
