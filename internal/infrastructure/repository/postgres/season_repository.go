package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/daklaw/nba-pickem-backend/internal/domain/season"
	"github.com/daklaw/nba-pickem-backend/internal/domain/week"
	qb "github.com/daklaw/nba-pickem-backend/internal/platform/querybuilder"
)

var seasonColumns = []string{"id", "league_id", "year", "label", "anchor_date"}

type SeasonRepository struct {
	db sqlx.ExtContext
}

func NewSeasonRepository(db sqlx.ExtContext) *SeasonRepository {
	return &SeasonRepository{db: db}
}

func (r *SeasonRepository) GetByID(ctx context.Context, seasonID string) (season.Season, bool, error) {
	query, args, err := qb.Select(seasonColumns...).From("seasons").
		Where(qb.Eq("id", seasonID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return season.Season{}, false, fmt.Errorf("build select season query: %w", err)
	}

	var row seasonTableModel
	if err := sqlx.GetContext(ctx, r.db, &row, query, args...); err != nil {
		if isNotFound(err) {
			return season.Season{}, false, nil
		}
		return season.Season{}, false, fmt.Errorf("select season: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *SeasonRepository) List(ctx context.Context) ([]season.Season, error) {
	query, args, err := qb.Select(seasonColumns...).From("seasons").
		OrderBy("year", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list seasons query: %w", err)
	}

	var rows []seasonTableModel
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}

	out := make([]season.Season, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *SeasonRepository) SetAnchorIfUnset(ctx context.Context, seasonID string, anchor time.Time) (time.Time, error) {
	query, args, err := qb.Update("seasons").
		SetExpr("anchor_date", "COALESCE(anchor_date, ?)", week.Date(anchor)).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", seasonID)).
		Suffix("RETURNING anchor_date").
		ToSQL()
	if err != nil {
		return time.Time{}, fmt.Errorf("build set season anchor query: %w", err)
	}

	var stored time.Time
	if err := sqlx.GetContext(ctx, r.db, &stored, query, args...); err != nil {
		if isNotFound(err) {
			return time.Time{}, fmt.Errorf("set season anchor: season %s does not exist", seasonID)
		}
		return time.Time{}, fmt.Errorf("set season anchor: %w", err)
	}
	return week.Date(stored), nil
}
