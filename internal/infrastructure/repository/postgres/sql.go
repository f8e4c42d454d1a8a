package postgres

import (
	"database/sql"
	"errors"

	crerr "github.com/cockroachdb/errors"
	"github.com/lib/pq"

	"github.com/daklaw/nba-pickem-backend/internal/domain/scoring"
)

// Postgres error codes that mean another transaction got in the way.
const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqLockNotAvailable     = "55P03"
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// markConflict tags lock and serialization failures as update conflicts so
// callers can retry them.
func markConflict(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqSerializationFailure, pqDeadlockDetected, pqLockNotAvailable:
			return crerr.Mark(err, scoring.ErrConcurrentUpdateConflict)
		}
	}
	return err
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	out := int(v.Int64)
	return &out
}
