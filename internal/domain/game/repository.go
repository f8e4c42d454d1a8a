package game

import (
	"context"
	"time"
)

// Repository describes game persistence needs from the scoring engine.
type Repository interface {
	GetByExternalID(ctx context.Context, externalID string) (Game, bool, error)
	// Upsert inserts or updates by ExternalID and returns the stored row.
	Upsert(ctx context.Context, g Game) (Game, error)
	// EarliestDate returns the earliest game date of a season; ok is false when the season has no games.
	EarliestDate(ctx context.Context, seasonID string) (time.Time, bool, error)
	// ListBySeasonTeams returns every game of a season involving any of teamIDs, ordered by date.
	ListBySeasonTeams(ctx context.Context, seasonID string, teamIDs []string) ([]Game, error)
	// ListBySeason returns every game of a season ordered by date then external id.
	ListBySeason(ctx context.Context, seasonID string) ([]Game, error)
}
