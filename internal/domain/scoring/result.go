package scoring

// ApplyResult summarizes one game application.
type ApplyResult struct {
	GameID            string `json:"game_id"`
	ExternalID        string `json:"external_id"`
	WinnerTeamID      string `json:"winner_team_id"`
	LoserTeamID       string `json:"loser_team_id"`
	WeekNumber        int    `json:"week_number"`
	AffectedUserCount int    `json:"affected_user_count"`
	// PointsAwarded is the net point delta written; zero when re-applied.
	PointsAwarded int `json:"points_awarded"`
	PicksUpdated  int `json:"picks_updated"`
}

// BatchApplyFailure is one game that could not be applied in a batch.
type BatchApplyFailure struct {
	ExternalID string `json:"external_id"`
	Error      string `json:"error"`
}

type BatchApplyResult struct {
	Applied  []ApplyResult       `json:"applied"`
	Failures []BatchApplyFailure `json:"failures,omitempty"`
}

// GameFailure is a game the recalculator skipped.
type GameFailure struct {
	GameID     string `json:"game_id"`
	ExternalID string `json:"external_id"`
	Reason     string `json:"reason"`
}

// PickChange records a pick whose points moved during a recalculation.
type PickChange struct {
	PickID    string `json:"pick_id"`
	UserID    string `json:"user_id"`
	TeamID    string `json:"team_id"`
	Week      int    `json:"week"`
	OldPoints int    `json:"old_points"`
	NewPoints int    `json:"new_points"`
	Record    string `json:"record"`
}

type RecalculateResult struct {
	SeasonsProcessed   int           `json:"seasons_processed"`
	GamesProcessed     int           `json:"games_processed"`
	GamesSkipped       int           `json:"games_skipped"`
	PicksUpdated       int           `json:"picks_updated"`
	UsersAffected      int           `json:"users_affected"`
	UsersChanged       int           `json:"users_changed"`
	TotalPointsAwarded int           `json:"total_points_awarded"`
	Failures           []GameFailure `json:"failures,omitempty"`
	Changes            []PickChange  `json:"changes,omitempty"`
}
