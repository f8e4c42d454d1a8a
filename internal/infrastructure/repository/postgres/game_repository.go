package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/daklaw/nba-pickem-backend/internal/domain/game"
	"github.com/daklaw/nba-pickem-backend/internal/domain/week"
	idgen "github.com/daklaw/nba-pickem-backend/internal/platform/id"
	qb "github.com/daklaw/nba-pickem-backend/internal/platform/querybuilder"
)

var gameColumns = []string{
	"id",
	"external_id",
	"season_id",
	"home_team_id",
	"away_team_id",
	"home_score",
	"away_score",
	"status",
	"winner_team_id",
	"week_id",
	"game_date",
	"starts_at",
}

type GameRepository struct {
	db  sqlx.ExtContext
	ids idgen.Generator
}

func NewGameRepository(db sqlx.ExtContext, ids idgen.Generator) *GameRepository {
	return &GameRepository{db: db, ids: ids}
}

func (r *GameRepository) GetByExternalID(ctx context.Context, externalID string) (game.Game, bool, error) {
	query, args, err := qb.Select(gameColumns...).From("games").
		Where(qb.Eq("external_id", externalID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return game.Game{}, false, fmt.Errorf("build select game query: %w", err)
	}

	var row gameTableModel
	if err := sqlx.GetContext(ctx, r.db, &row, query, args...); err != nil {
		if isNotFound(err) {
			return game.Game{}, false, nil
		}
		return game.Game{}, false, fmt.Errorf("select game by external id: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *GameRepository) Upsert(ctx context.Context, g game.Game) (game.Game, error) {
	if strings.TrimSpace(g.ID) == "" {
		id, err := r.ids.NewID()
		if err != nil {
			return game.Game{}, fmt.Errorf("generate game id: %w", err)
		}
		g.ID = id
	}

	query, args, err := qb.UpsertModel("games", gameModelFrom(g), []string{"external_id"}, []string{"id"}, strings.Join(gameColumns, ", "))
	if err != nil {
		return game.Game{}, fmt.Errorf("build upsert game query: %w", err)
	}

	var row gameTableModel
	if err := sqlx.GetContext(ctx, r.db, &row, query, args...); err != nil {
		return game.Game{}, fmt.Errorf("upsert game: %w", err)
	}
	return row.toDomain(), nil
}

func (r *GameRepository) EarliestDate(ctx context.Context, seasonID string) (time.Time, bool, error) {
	query, args, err := qb.Select("MIN(game_date)").From("games").
		Where(qb.Eq("season_id", seasonID)).
		ToSQL()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("build earliest game date query: %w", err)
	}

	var earliest sql.NullTime
	if err := sqlx.GetContext(ctx, r.db, &earliest, query, args...); err != nil {
		return time.Time{}, false, fmt.Errorf("select earliest game date: %w", err)
	}
	if !earliest.Valid {
		return time.Time{}, false, nil
	}
	return week.Date(earliest.Time), true, nil
}

func (r *GameRepository) ListBySeasonTeams(ctx context.Context, seasonID string, teamIDs []string) ([]game.Game, error) {
	return r.list(ctx, "season team games",
		qb.Eq("season_id", seasonID),
		qb.Or(qb.InStrings("home_team_id", teamIDs), qb.InStrings("away_team_id", teamIDs)),
	)
}

func (r *GameRepository) ListBySeason(ctx context.Context, seasonID string) ([]game.Game, error) {
	return r.list(ctx, "season games", qb.Eq("season_id", seasonID))
}

func (r *GameRepository) list(ctx context.Context, label string, conditions ...qb.Condition) ([]game.Game, error) {
	query, args, err := qb.Select(gameColumns...).From("games").
		Where(conditions...).
		OrderBy("game_date", "external_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list %s query: %w", label, err)
	}

	var rows []gameTableModel
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", label, err)
	}

	out := make([]game.Game, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
