package payment

import (
	weave "github.com/iov-one/weave"
)

const (
	// Quantity of title token units issued per receiver on creation. A
	// title claim settles proportionally to the quantity presented, in
	// thousandths of the full entitlement.
	oneTitleUnit = 1000

	// A release must not pay out less than this many fractional units per
	// interval, unless the whole payment is a single indivisible unit.
	minIntervalRate = 100000

	// Longest accepted release interval, one year in seconds.
	maxInterval weave.UnixDuration = 365 * 24 * 60 * 60
)

// alignedBoundary returns the latest interval boundary of the release grid
// anchored at start that is not after now. For now before start the
// negative remainder rounds the result up to the next grid point, never
// past start, so callers capping with max(boundary, start) get the full
// schedule back.
func alignedBoundary(now, start weave.UnixTime, interval weave.UnixDuration) weave.UnixTime {
	return now - (now-start)%weave.UnixTime(interval)
}

// wholeIntervals returns how many full intervals of the release grid
// anchored at start have elapsed at the given horizon. Zero when the horizon
// is not past the first boundary.
func wholeIntervals(horizon, start weave.UnixTime, interval weave.UnixDuration) int64 {
	if horizon <= start {
		return 0
	}
	return int64(horizon-start) / int64(interval)
}

// minTime returns the earlier of two timestamps.
func minTime(a, b weave.UnixTime) weave.UnixTime {
	if a < b {
		return a
	}
	return b
}
