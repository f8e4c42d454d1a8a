package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/daklaw/nba-pickem-backend/internal/domain/scoring"
	idgen "github.com/daklaw/nba-pickem-backend/internal/platform/id"
)

// Store runs scoring work in one read-committed transaction. Row locks and
// pick versions provide the isolation the engine needs.
type Store struct {
	db  *sqlx.DB
	ids idgen.Generator
}

func NewStore(db *sqlx.DB, ids idgen.Generator) *Store {
	if ids == nil {
		ids = idgen.NewUUIDGenerator()
	}
	return &Store{db: db, ids: ids}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos scoring.Repositories) error) error {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin scoring tx: %w", markConflict(err))
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(ctx, s.repositories(tx)); err != nil {
		return markConflict(err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit scoring tx: %w", markConflict(err))
	}
	return nil
}

func (s *Store) repositories(tx *sqlx.Tx) scoring.Repositories {
	return scoring.Repositories{
		Seasons: NewSeasonRepository(tx),
		Weeks:   NewWeekRepository(tx, s.ids),
		Games:   NewGameRepository(tx, s.ids),
		Picks:   NewPickRepository(tx),
		Users:   NewUserRepository(tx),
	}
}

// Ping checks connectivity for health probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
