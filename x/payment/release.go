package payment

import (
	"math/big"

	weave "github.com/iov-one/weave"
)

// settleRelease computes the payout a holder of the given title quantity can
// collect from a single release at the given time, together with the release
// that survives the claim. A nil survivor means the release is exhausted and
// must not be carried into a reissued title. cancelDate is zero when the
// payment was never cancelled.
//
// The returned payout is in fractional units and floors once, after the
// division by the full title quantity.
func settleRelease(now, cancelDate weave.UnixTime, quantity uint64, r *Release) (*big.Int, *Release) {
	zero := big.NewInt(0)

	// Cancelled before vesting began, nothing left to collect.
	if cancelDate > 0 && cancelDate <= r.StartDate {
		return zero, nil
	}
	if now <= r.StartDate {
		return zero, r
	}

	horizon := minTime(now, r.EndDate)
	if cancelDate > 0 {
		horizon = minTime(horizon, cancelDate)
	}
	intervals := wholeIntervals(horizon, r.StartDate, r.Interval)
	if intervals == 0 {
		return zero, r
	}

	payout := new(big.Int).SetUint64(quantity)
	payout.Mul(payout, big.NewInt(intervals))
	payout.Mul(payout, bigAmount(r.Amount))
	payout.Div(payout, big.NewInt(oneTitleUnit))

	if cancelDate == 0 && now < r.EndDate {
		survivor := &Release{
			Amount:    r.Amount,
			StartDate: alignedBoundary(now, r.StartDate, r.Interval),
			EndDate:   r.EndDate,
			Interval:  r.Interval,
		}
		return payout, survivor
	}
	return payout, nil
}

// settleAll runs settleRelease over a title's releases, returning the total
// payout and the releases that survive. An empty survivor list means the
// title is fully settled and must be burned without reissue.
func settleAll(now, cancelDate weave.UnixTime, quantity uint64, releases []*Release) (*big.Int, []*Release) {
	total := big.NewInt(0)
	var survivors []*Release
	for _, r := range releases {
		payout, keep := settleRelease(now, cancelDate, quantity, r)
		total.Add(total, payout)
		if keep != nil {
			survivors = append(survivors, keep)
		}
	}
	return total, survivors
}

// ClaimableAmount returns the amount, in fractional units, that presenting
// the given quantity of a title would pay out at the given time. This is the
// read only companion of the claim operation and does not modify state.
func ClaimableAmount(now, cancelDate weave.UnixTime, quantity uint64, releases []*Release) *big.Int {
	total, _ := settleAll(now, cancelDate, quantity, releases)
	return total
}

// refundRelease computes the unvested remainder returned to the creator when
// a release is cancelled at the given time. A release that already ran to
// its end refunds nothing. Cancellation before the schedule started refunds
// the full post tax value of the release.
func refundRelease(now weave.UnixTime, r *Release) *big.Int {
	if now >= r.EndDate {
		return big.NewInt(0)
	}
	start := r.StartDate
	if boundary := alignedBoundary(now, r.StartDate, r.Interval); boundary > start {
		start = boundary
	}
	refund := new(big.Int).SetInt64(int64(r.EndDate - start))
	refund.Mul(refund, bigAmount(r.Amount))
	return refund.Div(refund, big.NewInt(int64(r.Interval)))
}

// refundAll sums refundRelease over a cancellation's release snapshot.
func refundAll(now weave.UnixTime, releases []*Release) *big.Int {
	total := big.NewInt(0)
	for _, r := range releases {
		total.Add(total, refundRelease(now, r))
	}
	return total
}
