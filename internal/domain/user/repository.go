package user

import "context"

// Repository describes user persistence needs from the scoring engine.
type Repository interface {
	GetByID(ctx context.Context, userID string) (User, bool, error)
	// ApplyPointDeltas adds each delta to the user's total, locking rows in id order.
	ApplyPointDeltas(ctx context.Context, deltas map[string]int) error
	// RecomputeTotals rewrites totals as the sum of each user's pick points.
	// A nil userIDs recomputes every user. It returns how many totals changed.
	RecomputeTotals(ctx context.Context, userIDs []string) (int, error)
}
