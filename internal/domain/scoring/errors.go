package scoring

import (
	crerr "github.com/cockroachdb/errors"
)

var (
	ErrGameNotFinal             = crerr.New("game is not final")
	ErrInvalidGameState         = crerr.New("invalid game state")
	ErrInvalidDate              = crerr.New("date precedes season anchor")
	ErrWeekResolutionFailed     = crerr.New("week resolution failed")
	ErrConcurrentUpdateConflict = crerr.New("concurrent update conflict")
)

// IsRetryable reports whether err is worth retrying in a fresh transaction.
func IsRetryable(err error) bool {
	return crerr.Is(err, ErrConcurrentUpdateConflict)
}
