package season

import (
	"context"
	"time"
)

// Repository describes season persistence needs from the scoring engine.
type Repository interface {
	GetByID(ctx context.Context, seasonID string) (Season, bool, error)
	List(ctx context.Context) ([]Season, error)
	// SetAnchorIfUnset stores anchor only when the season has none yet and
	// returns the anchor that is in effect afterwards.
	SetAnchorIfUnset(ctx context.Context, seasonID string, anchor time.Time) (time.Time, error)
}
