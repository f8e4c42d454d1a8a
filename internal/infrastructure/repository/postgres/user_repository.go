package postgres

import (
	"context"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/daklaw/nba-pickem-backend/internal/domain/user"
	qb "github.com/daklaw/nba-pickem-backend/internal/platform/querybuilder"
)

type UserRepository struct {
	db sqlx.ExtContext
}

func NewUserRepository(db sqlx.ExtContext) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, userID string) (user.User, bool, error) {
	query, args, err := qb.Select("id", "league_id", "name", "total_points", "version").
		From("users").
		Where(qb.Eq("id", userID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return user.User{}, false, fmt.Errorf("build select user query: %w", err)
	}

	var row userTableModel
	if err := sqlx.GetContext(ctx, r.db, &row, query, args...); err != nil {
		if isNotFound(err) {
			return user.User{}, false, nil
		}
		return user.User{}, false, fmt.Errorf("select user: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *UserRepository) ApplyPointDeltas(ctx context.Context, deltas map[string]int) error {
	userIDs := make([]string, 0, len(deltas))
	for userID, delta := range deltas {
		if delta != 0 {
			userIDs = append(userIDs, userID)
		}
	}
	if len(userIDs) == 0 {
		return nil
	}
	sort.Strings(userIDs)

	lockQuery, lockArgs, err := qb.Select("id").From("users").
		Where(qb.InStrings("id", userIDs)).
		OrderBy("id").
		Suffix("FOR UPDATE").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build lock users query: %w", err)
	}
	var locked []string
	if err := sqlx.SelectContext(ctx, r.db, &locked, lockQuery, lockArgs...); err != nil {
		return fmt.Errorf("lock users: %w", markConflict(err))
	}
	if len(locked) != len(userIDs) {
		return fmt.Errorf("lock users: expected %d rows, got %d", len(userIDs), len(locked))
	}

	for _, userID := range userIDs {
		query, args, err := qb.Update("users").
			SetExpr("total_points", "total_points + ?", deltas[userID]).
			SetExpr("version", "version + 1").
			SetExpr("updated_at", "NOW()").
			Where(qb.Eq("id", userID)).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build apply user delta query: %w", err)
		}
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("apply user delta: %w", markConflict(err))
		}
	}
	return nil
}

const recomputeTotalsQuery = `UPDATE users u
SET total_points = s.points, version = u.version + 1, updated_at = NOW()
FROM (
    SELECT u2.id, COALESCE(SUM(p.points_awarded), 0) AS points
    FROM users u2
    LEFT JOIN picks p ON p.user_id = u2.id
    WHERE $1::text[] IS NULL OR u2.id = ANY($1::text[])
    GROUP BY u2.id
) s
WHERE u.id = s.id AND u.total_points IS DISTINCT FROM s.points`

func (r *UserRepository) RecomputeTotals(ctx context.Context, userIDs []string) (int, error) {
	var filter any
	if userIDs != nil {
		filter = pq.Array(userIDs)
	}

	result, err := r.db.ExecContext(ctx, recomputeTotalsQuery, filter)
	if err != nil {
		return 0, fmt.Errorf("recompute user totals: %w", markConflict(err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("recompute user totals rows affected: %w", err)
	}
	return int(affected), nil
}
