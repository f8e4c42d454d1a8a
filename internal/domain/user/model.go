package user

// User is a pick'em participant. TotalPoints always equals the sum of the
// user's pick points after a scoring operation commits.
type User struct {
	ID          string
	LeagueID    string
	Name        string
	TotalPoints int
	Version     int64
}
