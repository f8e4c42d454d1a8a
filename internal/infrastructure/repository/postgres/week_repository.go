package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/daklaw/nba-pickem-backend/internal/domain/week"
	idgen "github.com/daklaw/nba-pickem-backend/internal/platform/id"
	qb "github.com/daklaw/nba-pickem-backend/internal/platform/querybuilder"
)

type WeekRepository struct {
	db  sqlx.ExtContext
	ids idgen.Generator
}

func NewWeekRepository(db sqlx.ExtContext, ids idgen.Generator) *WeekRepository {
	return &WeekRepository{db: db, ids: ids}
}

// GetOrCreate relies on the (season_id, number) unique key so concurrent
// callers converge on one row without a read-then-write race.
func (r *WeekRepository) GetOrCreate(ctx context.Context, w week.Week) (week.Week, error) {
	id, err := r.ids.NewID()
	if err != nil {
		return week.Week{}, fmt.Errorf("generate week id: %w", err)
	}

	query, args, err := qb.InsertInto("weeks").
		Columns("id", "season_id", "number", "start_date", "end_date").
		Values(id, w.SeasonID, w.Number, week.Date(w.StartDate), week.Date(w.EndDate)).
		Suffix(`ON CONFLICT (season_id, number) DO UPDATE SET number = EXCLUDED.number
RETURNING id, season_id, number, start_date, end_date`).
		ToSQL()
	if err != nil {
		return week.Week{}, fmt.Errorf("build upsert week query: %w", err)
	}

	var row weekTableModel
	if err := sqlx.GetContext(ctx, r.db, &row, query, args...); err != nil {
		return week.Week{}, fmt.Errorf("upsert week: %w", err)
	}
	return row.toDomain(), nil
}

func (r *WeekRepository) ListBySeason(ctx context.Context, seasonID string) ([]week.Week, error) {
	query, args, err := qb.Select("id", "season_id", "number", "start_date", "end_date").
		From("weeks").
		Where(qb.Eq("season_id", seasonID)).
		OrderBy("number").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list weeks query: %w", err)
	}

	var rows []weekTableModel
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list weeks: %w", err)
	}

	out := make([]week.Week, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
