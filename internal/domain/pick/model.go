package pick

// Pick is a user's team selection for one week of a season.
// PointsAwarded, Wins and Losses are owned by the scoring engine.
type Pick struct {
	ID             string
	UserID         string
	TeamID         string
	SeasonID       string
	WeekID         string
	WeekNumber     int
	IsSuperweek    bool
	IsShootTheMoon bool
	PointsAwarded  int
	Wins           int
	Losses         int
	Version        int64
}

// Score is the scoring engine's write for one pick.
type Score struct {
	PickID          string
	PointsAwarded   int
	Wins            int
	Losses          int
	ExpectedVersion int64
}

// Filter selects candidate picks for scoring.
type Filter struct {
	SeasonID string
	WeekID   string
	TeamIDs  []string
	// IncludeShootTheMoon also selects every shoot-the-moon pick on TeamIDs
	// in the season, regardless of week.
	IncludeShootTheMoon bool
}
