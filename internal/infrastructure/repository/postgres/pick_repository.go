package postgres

import (
	"context"
	"fmt"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"

	"github.com/daklaw/nba-pickem-backend/internal/domain/pick"
	"github.com/daklaw/nba-pickem-backend/internal/domain/scoring"
	qb "github.com/daklaw/nba-pickem-backend/internal/platform/querybuilder"
)

var pickColumns = []string{
	"p.id",
	"p.user_id",
	"p.team_id",
	"p.season_id",
	"p.week_id",
	"w.number AS week_number",
	"p.is_superweek",
	"p.is_shoot_the_moon",
	"p.points_awarded",
	"p.wins",
	"p.losses",
	"p.version",
}

type PickRepository struct {
	db sqlx.ExtContext
}

func NewPickRepository(db sqlx.ExtContext) *PickRepository {
	return &PickRepository{db: db}
}

func (r *PickRepository) ListForUpdate(ctx context.Context, filter pick.Filter) ([]pick.Pick, error) {
	conditions := []qb.Condition{
		qb.Eq("p.season_id", filter.SeasonID),
		qb.InStrings("p.team_id", filter.TeamIDs),
	}
	if filter.IncludeShootTheMoon {
		conditions = append(conditions, qb.Or(qb.Eq("p.week_id", filter.WeekID), qb.Expr("p.is_shoot_the_moon")))
	} else {
		conditions = append(conditions, qb.Eq("p.week_id", filter.WeekID))
	}
	return r.lockedList(ctx, "candidate picks", conditions...)
}

func (r *PickRepository) ListBySeasonForUpdate(ctx context.Context, seasonID string) ([]pick.Pick, error) {
	return r.lockedList(ctx, "season picks", qb.Eq("p.season_id", seasonID))
}

// lockedList takes row locks in id order so concurrent scorers queue up
// instead of deadlocking.
func (r *PickRepository) lockedList(ctx context.Context, label string, conditions ...qb.Condition) ([]pick.Pick, error) {
	query, args, err := qb.Select(pickColumns...).From("picks p").
		Join("JOIN weeks w ON w.id = p.week_id").
		Where(conditions...).
		OrderBy("p.id").
		Suffix("FOR UPDATE OF p").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select %s query: %w", label, err)
	}

	var rows []pickTableModel
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select %s for update: %w", label, markConflict(err))
	}

	out := make([]pick.Pick, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *PickRepository) UpdateScore(ctx context.Context, score pick.Score) (int64, error) {
	query, args, err := qb.Update("picks").
		Set("points_awarded", score.PointsAwarded).
		Set("wins", score.Wins).
		Set("losses", score.Losses).
		SetExpr("version", "version + 1").
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("id", score.PickID),
			qb.Eq("version", score.ExpectedVersion),
		).
		Suffix("RETURNING version").
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build update pick score query: %w", err)
	}

	var version int64
	if err := sqlx.GetContext(ctx, r.db, &version, query, args...); err != nil {
		if isNotFound(err) {
			return 0, crerr.Wrapf(scoring.ErrConcurrentUpdateConflict, "pick %s changed since version %d", score.PickID, score.ExpectedVersion)
		}
		return 0, fmt.Errorf("update pick score: %w", markConflict(err))
	}
	return version, nil
}
