package week

import (
	"testing"
	"time"
)

func TestNumberFor(t *testing.T) {
	anchor := time.Date(2024, 10, 22, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		date time.Time
		want int
	}{
		{name: "anchor day", date: anchor, want: 1},
		{name: "last day of week one", date: anchor.AddDate(0, 0, 6), want: 1},
		{name: "first day of week two", date: anchor.AddDate(0, 0, 7), want: 2},
		{name: "week three", date: time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC), want: 3},
		{name: "time of day ignored", date: time.Date(2024, 10, 28, 23, 59, 0, 0, time.UTC), want: 1},
		{name: "day before anchor", date: anchor.AddDate(0, 0, -1), want: 0},
		{name: "eight days before anchor", date: anchor.AddDate(0, 0, -8), want: -1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := NumberFor(anchor, tc.date); got != tc.want {
				t.Fatalf("unexpected week number: got=%d want=%d", got, tc.want)
			}
		})
	}
}

func TestNewWeekBounds(t *testing.T) {
	anchor := time.Date(2024, 10, 22, 0, 0, 0, 0, time.UTC)
	w := New("season-1", anchor, 3)

	wantStart := time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, 11, 12, 0, 0, 0, 0, time.UTC)
	if !w.StartDate.Equal(wantStart) || !w.EndDate.Equal(wantEnd) {
		t.Fatalf("unexpected bounds: start=%s end=%s", w.StartDate, w.EndDate)
	}
	if !w.Contains(wantStart) {
		t.Fatalf("week must contain its start date")
	}
	if w.Contains(wantEnd) {
		t.Fatalf("week end date is exclusive")
	}
}

func TestDateIn(t *testing.T) {
	eastern, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	// 01:30 UTC on Nov 6 is still the evening of Nov 5 on the east coast.
	tipOff := time.Date(2024, 11, 6, 1, 30, 0, 0, time.UTC)
	got := DateIn(tipOff, eastern)
	want := time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("unexpected local date: got=%s want=%s", got, want)
	}
}

func TestSummary(t *testing.T) {
	w := New("nba-2024-25", time.Date(2024, 10, 22, 0, 0, 0, 0, time.UTC), 3)
	w.ID = "nba-2024-25-week-3"

	got := w.Summary()
	want := Summary{
		ID:        "nba-2024-25-week-3",
		SeasonID:  "nba-2024-25",
		Number:    3,
		StartDate: "2024-11-05",
		EndDate:   "2024-11-12",
	}
	if got != want {
		t.Fatalf("summary=%+v want=%+v", got, want)
	}
}
