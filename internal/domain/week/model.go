package week

import (
	"time"
)

// Days is the fixed length of a scoring week.
const Days = 7

// Week is a 7-day scoring window of a season. EndDate is exclusive.
type Week struct {
	ID        string
	SeasonID  string
	Number    int
	StartDate time.Time
	EndDate   time.Time
}

// Date truncates t to its calendar date at UTC midnight, keeping the wall-clock day.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateIn returns the calendar date of instant t as observed in loc.
func DateIn(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return Date(t.In(loc))
}

// DaysBetween counts whole calendar days from a to b; negative when b precedes a.
func DaysBetween(a, b time.Time) int {
	return int(Date(b).Sub(Date(a)).Hours() / 24)
}

// NumberFor returns the unclamped week number of date relative to anchor.
// Dates before the anchor yield numbers below 1.
func NumberFor(anchor, date time.Time) int {
	days := DaysBetween(anchor, date)
	return floorDiv(days, Days) + 1
}

// Bounds returns [start, end) of week number n.
func Bounds(anchor time.Time, number int) (time.Time, time.Time) {
	start := Date(anchor).AddDate(0, 0, Days*(number-1))
	return start, start.AddDate(0, 0, Days)
}

// New builds an unsaved week for number n of a season anchored at anchor.
func New(seasonID string, anchor time.Time, number int) Week {
	start, end := Bounds(anchor, number)
	return Week{
		SeasonID:  seasonID,
		Number:    number,
		StartDate: start,
		EndDate:   end,
	}
}

// Summary is the external shape of a week, with calendar dates.
type Summary struct {
	ID        string `json:"id"`
	SeasonID  string `json:"season_id"`
	Number    int    `json:"number"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (w Week) Summary() Summary {
	return Summary{
		ID:        w.ID,
		SeasonID:  w.SeasonID,
		Number:    w.Number,
		StartDate: w.StartDate.Format(time.DateOnly),
		EndDate:   w.EndDate.Format(time.DateOnly),
	}
}

func (w Week) Contains(date time.Time) bool {
	d := Date(date)
	return !d.Before(w.StartDate) && d.Before(w.EndDate)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
