package postgres

import (
	"context"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"

	"github.com/daklaw/nba-pickem-backend/internal/domain/week"
	"github.com/daklaw/nba-pickem-backend/internal/infrastructure/repository/memory"
)

// BootstrapSeed loads f into an empty database. It does nothing once any
// season exists.
func BootstrapSeed(ctx context.Context, db *sqlx.DB, f memory.Fixture) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM seasons`); err != nil {
		return fmt.Errorf("count seasons for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, s := range f.Seasons {
		var anchor any
		if s.AnchorDate != nil {
			anchor = week.Date(*s.AnchorDate)
		}
		if err := execNamed(ctx, tx, "season "+s.ID, `
INSERT INTO seasons (id, league_id, year, label, anchor_date)
VALUES (:id, :league_id, :year, :label, :anchor_date)
ON CONFLICT (id) DO NOTHING`, map[string]any{
			"id":          s.ID,
			"league_id":   s.LeagueID,
			"year":        s.Year,
			"label":       s.Label,
			"anchor_date": anchor,
		}); err != nil {
			return err
		}
	}

	for _, teamID := range fixtureTeams(f) {
		if err := execNamed(ctx, tx, "team "+teamID, `
INSERT INTO teams (id, abbreviation, name)
VALUES (:id, :abbreviation, :name)
ON CONFLICT (id) DO NOTHING`, map[string]any{
			"id":           teamID,
			"abbreviation": teamID,
			"name":         teamID,
		}); err != nil {
			return err
		}
	}

	for _, u := range f.Users {
		if err := execNamed(ctx, tx, "user "+u.ID, `
INSERT INTO users (id, league_id, name, total_points)
VALUES (:id, :league_id, :name, :total_points)
ON CONFLICT (id) DO NOTHING`, map[string]any{
			"id":           u.ID,
			"league_id":    u.LeagueID,
			"name":         u.Name,
			"total_points": u.TotalPoints,
		}); err != nil {
			return err
		}
	}

	for _, w := range f.Weeks {
		if err := execNamed(ctx, tx, "week "+w.ID, `
INSERT INTO weeks (id, season_id, number, start_date, end_date)
VALUES (:id, :season_id, :number, :start_date, :end_date)
ON CONFLICT (id) DO NOTHING`, map[string]any{
			"id":         w.ID,
			"season_id":  w.SeasonID,
			"number":     w.Number,
			"start_date": week.Date(w.StartDate),
			"end_date":   week.Date(w.EndDate),
		}); err != nil {
			return err
		}
	}

	for _, g := range f.Games {
		m := gameModelFrom(g)
		if err := execNamed(ctx, tx, "game "+g.ExternalID, `
INSERT INTO games (id, external_id, season_id, home_team_id, away_team_id, home_score, away_score, status, winner_team_id, week_id, game_date, starts_at)
VALUES (:id, :external_id, :season_id, :home_team_id, :away_team_id, :home_score, :away_score, :status, :winner_team_id, :week_id, :game_date, :starts_at)
ON CONFLICT (external_id) DO NOTHING`, m); err != nil {
			return err
		}
	}

	for _, p := range f.Picks {
		if err := execNamed(ctx, tx, "pick "+p.ID, `
INSERT INTO picks (id, user_id, team_id, season_id, week_id, is_superweek, is_shoot_the_moon, points_awarded, wins, losses)
SELECT :id, :user_id, :team_id, w.season_id, w.id, :is_superweek, :is_shoot_the_moon, :points_awarded, :wins, :losses
FROM weeks w
WHERE w.id = :week_id
ON CONFLICT (id) DO NOTHING`, map[string]any{
			"id":                p.ID,
			"user_id":           p.UserID,
			"team_id":           p.TeamID,
			"week_id":           p.WeekID,
			"is_superweek":      p.IsSuperweek,
			"is_shoot_the_moon": p.IsShootTheMoon,
			"points_awarded":    p.PointsAwarded,
			"wins":              p.Wins,
			"losses":            p.Losses,
		}); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}

	return nil
}

func execNamed(ctx context.Context, tx *sqlx.Tx, label, query string, arg any) error {
	sqlQuery, args, err := sqlx.Named(query, arg)
	if err != nil {
		return fmt.Errorf("bind seed %s query: %w", label, err)
	}
	sqlQuery = tx.Rebind(sqlQuery)
	if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
		return fmt.Errorf("seed %s: %w", label, err)
	}
	return nil
}

// fixtureTeams lists every team referenced by f's games and picks, sorted.
func fixtureTeams(f memory.Fixture) []string {
	seen := make(map[string]struct{})
	add := func(id string) {
		if id != "" {
			seen[id] = struct{}{}
		}
	}
	for _, g := range f.Games {
		add(g.HomeTeamID)
		add(g.AwayTeamID)
	}
	for _, p := range f.Picks {
		add(p.TeamID)
	}

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
