package querybuilder

import "testing"

func TestSelectBuilderForUpdate(t *testing.T) {
	query, args, err := Select("p.id", "p.points_awarded").
		From("picks p").
		Join("JOIN weeks w ON w.id = p.week_id").
		Where(
			Eq("p.season_id", "s1"),
			InStrings("p.team_id", []string{"BOS", "NYK"}),
			Or(Eq("p.week_id", "w3"), Expr("p.is_shoot_the_moon")),
		).
		OrderBy("p.id").
		Suffix("FOR UPDATE OF p").
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT p.id, p.points_awarded FROM picks p JOIN weeks w ON w.id = p.week_id " +
		"WHERE p.season_id = $1 AND p.team_id IN ($2, $3) AND (p.week_id = $4 OR p.is_shoot_the_moon) " +
		"ORDER BY p.id FOR UPDATE OF p"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 4 || args[0] != "s1" || args[2] != "NYK" || args[3] != "w3" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilderEmptyIn(t *testing.T) {
	query, args, err := Select("id").From("games").Where(InStrings("id", nil), IsNotNull("starts_at")).Limit(5).ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}
	if want := "SELECT id FROM games WHERE 1=0 AND starts_at IS NOT NULL LIMIT 5"; query != want {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", want, query)
	}
	if len(args) != 0 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilderSuffixArgs(t *testing.T) {
	query, args, err := InsertInto("weeks").
		Columns("id", "season_id", "number").
		Values("w1", "s1", 3).
		Suffix("ON CONFLICT (season_id, number) DO UPDATE SET number = EXCLUDED.number WHERE weeks.season_id = ? RETURNING id", "s1").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO weeks (id, season_id, number) VALUES ($1, $2, $3) " +
		"ON CONFLICT (season_id, number) DO UPDATE SET number = EXCLUDED.number WHERE weeks.season_id = $4 RETURNING id"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 4 || args[3] != "s1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestUpdateBuilderVersioned(t *testing.T) {
	query, args, err := Update("picks").
		Set("points_awarded", 2).
		SetExpr("version", "version + 1").
		SetExpr("updated_at", "NOW()").
		Where(Eq("id", "p1"), Eq("version", int64(4))).
		Suffix("RETURNING version").
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	wantQuery := "UPDATE picks SET points_awarded = $1, version = version + 1, updated_at = NOW() WHERE id = $2 AND version = $3 RETURNING version"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 || args[0] != 2 || args[1] != "p1" || args[2] != int64(4) {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestUpsertModel(t *testing.T) {
	type row struct {
		ID         string `db:"id"`
		ExternalID string `db:"external_id"`
		Status     string `db:"status"`
		CreatedAt  string `db:"created_at" qb:"readonly"`
	}

	query, args, err := UpsertModel("games", row{ID: "g1", ExternalID: "0022400061", Status: "final"}, []string{"external_id"}, []string{"id"}, "id")
	if err != nil {
		t.Fatalf("build upsert query: %v", err)
	}

	wantQuery := "INSERT INTO games (id, external_id, status) VALUES ($1, $2, $3) " +
		"ON CONFLICT (external_id) DO UPDATE SET status = EXCLUDED.status RETURNING id"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 || args[1] != "0022400061" {
		t.Fatalf("unexpected args: %+v", args)
	}
}
