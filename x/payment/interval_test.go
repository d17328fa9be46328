package payment

import (
	"testing"

	weave "github.com/iov-one/weave"
)

func TestAlignedBoundary(t *testing.T) {
	cases := map[string]struct {
		now      weave.UnixTime
		start    weave.UnixTime
		interval weave.UnixDuration
		want     weave.UnixTime
	}{
		"on the grid": {
			now: 130, start: 100, interval: 10, want: 130,
		},
		"between boundaries": {
			now: 135, start: 100, interval: 10, want: 130,
		},
		"right after a boundary": {
			now: 131, start: 100, interval: 10, want: 130,
		},
		"at the start": {
			now: 100, start: 100, interval: 10, want: 100,
		},
		"single second interval": {
			now: 105, start: 100, interval: 1, want: 105,
		},
		"before the start clamps toward the start": {
			now: 95, start: 100, interval: 10, want: 100,
		},
		"an interval before the start": {
			now: 85, start: 100, interval: 10, want: 90,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if got := alignedBoundary(tc.now, tc.start, tc.interval); got != tc.want {
				t.Fatalf("want %d, got %d", tc.want, got)
			}
		})
	}
}

func TestWholeIntervals(t *testing.T) {
	cases := map[string]struct {
		horizon  weave.UnixTime
		start    weave.UnixTime
		interval weave.UnixDuration
		want     int64
	}{
		"none before the start":         {horizon: 90, start: 100, interval: 10, want: 0},
		"none at the start":             {horizon: 100, start: 100, interval: 10, want: 0},
		"none within the first":         {horizon: 109, start: 100, interval: 10, want: 0},
		"one at the first boundary":     {horizon: 110, start: 100, interval: 10, want: 1},
		"partial intervals do not pay":  {horizon: 135, start: 100, interval: 10, want: 3},
		"full schedule":                 {horizon: 200, start: 100, interval: 10, want: 10},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if got := wholeIntervals(tc.horizon, tc.start, tc.interval); got != tc.want {
				t.Fatalf("want %d, got %d", tc.want, got)
			}
		})
	}
}
