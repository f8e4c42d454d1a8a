package memory

import (
	"strconv"
	"time"

	"github.com/daklaw/nba-pickem-backend/internal/domain/game"
	"github.com/daklaw/nba-pickem-backend/internal/domain/pick"
	"github.com/daklaw/nba-pickem-backend/internal/domain/season"
	"github.com/daklaw/nba-pickem-backend/internal/domain/user"
	"github.com/daklaw/nba-pickem-backend/internal/domain/week"
)

// Fixture is a bulk set of rows for seeding or inspecting a Store.
type Fixture struct {
	Seasons []season.Season
	Weeks   []week.Week
	Games   []game.Game
	Picks   []pick.Pick
	Users   []user.User
}

const (
	DemoLeagueID = "nba-pickem-demo"
	DemoSeasonID = "nba-2024-25"
)

// DemoFixture is a small 2024-25 league used when running without postgres.
// Weeks are anchored at opening night, 2024-10-22.
func DemoFixture() Fixture {
	anchor := time.Date(2024, 10, 22, 0, 0, 0, 0, time.UTC)

	weeks := make([]week.Week, 0, 3)
	for n := 1; n <= 3; n++ {
		w := week.New(DemoSeasonID, anchor, n)
		w.ID = demoWeekID(n)
		weeks = append(weeks, w)
	}

	return Fixture{
		Seasons: []season.Season{
			{ID: DemoSeasonID, LeagueID: DemoLeagueID, Year: 2024, Label: "2024-25", AnchorDate: &anchor},
		},
		Weeks: weeks,
		Users: []user.User{
			{ID: "user-ana", LeagueID: DemoLeagueID, Name: "Ana", Version: 1},
			{ID: "user-ben", LeagueID: DemoLeagueID, Name: "Ben", Version: 1},
			{ID: "user-cy", LeagueID: DemoLeagueID, Name: "Cy", Version: 1},
		},
		Games: []game.Game{
			{ID: "game-0022400061", ExternalID: "0022400061", SeasonID: DemoSeasonID, HomeTeamID: "BOS", AwayTeamID: "NYK", Status: game.StatusPending, Date: anchor},
			{ID: "game-0022400062", ExternalID: "0022400062", SeasonID: DemoSeasonID, HomeTeamID: "LAL", AwayTeamID: "MIN", Status: game.StatusPending, Date: anchor},
			{ID: "game-0022400175", ExternalID: "0022400175", SeasonID: DemoSeasonID, HomeTeamID: "BOS", AwayTeamID: "DET", Status: game.StatusPending, Date: anchor.AddDate(0, 0, 14)},
		},
		Picks: []pick.Pick{
			{ID: "pick-ana-1", UserID: "user-ana", TeamID: "BOS", WeekID: demoWeekID(1)},
			{ID: "pick-ben-1", UserID: "user-ben", TeamID: "NYK", WeekID: demoWeekID(1)},
			{ID: "pick-cy-1", UserID: "user-cy", TeamID: "LAL", WeekID: demoWeekID(1), IsSuperweek: true},
			{ID: "pick-ana-3", UserID: "user-ana", TeamID: "DET", WeekID: demoWeekID(3), IsShootTheMoon: true},
			{ID: "pick-ben-3", UserID: "user-ben", TeamID: "BOS", WeekID: demoWeekID(3), IsSuperweek: true},
		},
	}
}

func demoWeekID(n int) string {
	return DemoSeasonID + "-week-" + strconv.Itoa(n)
}
