package pick

import "context"

// Repository describes pick persistence needs from the scoring engine.
type Repository interface {
	// ListForUpdate returns matching picks ordered by id and locks them for
	// the rest of the transaction.
	ListForUpdate(ctx context.Context, filter Filter) ([]Pick, error)
	// ListBySeasonForUpdate locks every pick of a season, ordered by id.
	ListBySeasonForUpdate(ctx context.Context, seasonID string) ([]Pick, error)
	// UpdateScore writes a score when the stored version still matches and
	// returns the new version.
	UpdateScore(ctx context.Context, score Score) (int64, error)
}
