package season

import "time"

// Season is one league year of pick'em play, e.g. 2024-25.
type Season struct {
	ID       string
	LeagueID string
	Year     int
	Label    string
	// AnchorDate is the date of the season's earliest game. Once set it never moves.
	AnchorDate *time.Time
}

func (s Season) HasAnchor() bool {
	return s.AnchorDate != nil && !s.AnchorDate.IsZero()
}
