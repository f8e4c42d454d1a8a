package scoring

import (
	"context"

	"github.com/daklaw/nba-pickem-backend/internal/domain/game"
	"github.com/daklaw/nba-pickem-backend/internal/domain/pick"
	"github.com/daklaw/nba-pickem-backend/internal/domain/season"
	"github.com/daklaw/nba-pickem-backend/internal/domain/user"
	"github.com/daklaw/nba-pickem-backend/internal/domain/week"
)

// Repositories is the set of repositories bound to one transaction.
type Repositories struct {
	Seasons season.Repository
	Weeks   week.Repository
	Games   game.Repository
	Picks   pick.Repository
	Users   user.Repository
}

// Store runs scoring work atomically. fn's writes commit together when it
// returns nil and are discarded otherwise.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
