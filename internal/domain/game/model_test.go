package game

import "testing"

func TestWinnerLoser(t *testing.T) {
	tests := []struct {
		name       string
		home, away *int
		wantWinner string
		wantLoser  string
		wantOK     bool
	}{
		{name: "home wins", home: IntPtr(110), away: IntPtr(98), wantWinner: "BOS", wantLoser: "NYK", wantOK: true},
		{name: "away wins", home: IntPtr(101), away: IntPtr(104), wantWinner: "NYK", wantLoser: "BOS", wantOK: true},
		{name: "tie", home: IntPtr(100), away: IntPtr(100)},
		{name: "missing score", home: IntPtr(100)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := Game{HomeTeamID: "BOS", AwayTeamID: "NYK", HomeScore: tc.home, AwayScore: tc.away}
			winner, loser, ok := g.WinnerLoser()
			if ok != tc.wantOK || winner != tc.wantWinner || loser != tc.wantLoser {
				t.Fatalf("unexpected result: winner=%q loser=%q ok=%v", winner, loser, ok)
			}
		})
	}
}

func TestNormalizeStatus(t *testing.T) {
	cases := map[string]string{
		"":          StatusPending,
		" Final ":   StatusFinal,
		"completed": StatusFinal,
		"scheduled": StatusPending,
		"postponed": StatusCancelled,
		"suspended": "suspended",
	}
	for in, want := range cases {
		if got := NormalizeStatus(in); got != want {
			t.Fatalf("NormalizeStatus(%q)=%q want %q", in, got, want)
		}
	}
}
