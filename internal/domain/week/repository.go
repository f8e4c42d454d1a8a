package week

import "context"

// Repository persists weeks. Weeks are created lazily and never deleted.
type Repository interface {
	// GetOrCreate atomically returns the week for (SeasonID, Number), inserting
	// the given row when none exists yet.
	GetOrCreate(ctx context.Context, w Week) (Week, error)
	ListBySeason(ctx context.Context, seasonID string) ([]Week, error)
}
