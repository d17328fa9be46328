package payment

import (
	"math/big"
	"testing"

	weave "github.com/iov-one/weave"
)

func release(amount int64, start, end weave.UnixTime, interval weave.UnixDuration) *Release {
	return &Release{
		Amount:    amountBytes(big.NewInt(amount)),
		StartDate: start,
		EndDate:   end,
		Interval:  interval,
	}
}

func TestSettleRelease(t *testing.T) {
	// The schedule below pays 100 per interval of 10 seconds, between
	// 110 and 210, to the holder of a full title of 1000 units.
	cases := map[string]struct {
		now          weave.UnixTime
		cancel       weave.UnixTime
		quantity     uint64
		wantPayout   int64
		wantSurvivor bool
		wantStart    weave.UnixTime
	}{
		"before the start nothing vested": {
			now: 105, quantity: 1000,
			wantPayout: 0, wantSurvivor: true, wantStart: 110,
		},
		"at the start nothing vested": {
			now: 110, quantity: 1000,
			wantPayout: 0, wantSurvivor: true, wantStart: 110,
		},
		"within the first interval nothing vested": {
			now: 119, quantity: 1000,
			wantPayout: 0, wantSurvivor: true, wantStart: 110,
		},
		"two and a half intervals pay two": {
			now: 135, quantity: 1000,
			wantPayout: 200, wantSurvivor: true, wantStart: 130,
		},
		"partial quantity pays pro rata": {
			now: 135, quantity: 500,
			wantPayout: 100, wantSurvivor: true, wantStart: 130,
		},
		"at the end everything vested": {
			now: 210, quantity: 1000,
			wantPayout: 1000, wantSurvivor: false,
		},
		"after the end everything vested": {
			now: 500, quantity: 1000,
			wantPayout: 1000, wantSurvivor: false,
		},
		"cancelled before the start drops the release": {
			now: 200, cancel: 105, quantity: 1000,
			wantPayout: 0, wantSurvivor: false,
		},
		"cancelled at the start drops the release": {
			now: 200, cancel: 110, quantity: 1000,
			wantPayout: 0, wantSurvivor: false,
		},
		"cancelled mid schedule pays what vested before the cut": {
			now: 200, cancel: 135, quantity: 1000,
			wantPayout: 200, wantSurvivor: false,
		},
		"cancelled but claimed earlier pays up to now": {
			now: 125, cancel: 150, quantity: 1000,
			wantPayout: 100, wantSurvivor: false,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			r := release(100, 110, 210, 10)
			payout, survivor := settleRelease(tc.now, tc.cancel, tc.quantity, r)
			if payout.Int64() != tc.wantPayout {
				t.Fatalf("want payout %d, got %s", tc.wantPayout, payout)
			}
			if tc.wantSurvivor != (survivor != nil) {
				t.Fatalf("want survivor %v, got %v", tc.wantSurvivor, survivor)
			}
			if survivor != nil && survivor.StartDate != tc.wantStart {
				t.Fatalf("want survivor start %d, got %d", tc.wantStart, survivor.StartDate)
			}
		})
	}
}

func TestSettleReleaseIdempotentBeforeStart(t *testing.T) {
	// Any number of claims before vesting begins must return the release
	// unchanged and pay nothing.
	r := release(100, 110, 210, 10)
	for i := 0; i < 3; i++ {
		payout, survivor := settleRelease(105, 0, 1000, r)
		if payout.Sign() != 0 {
			t.Fatalf("claim %d paid %s", i, payout)
		}
		if survivor != r {
			t.Fatalf("claim %d altered the release", i)
		}
	}
}

func TestSettleAllFloorsPerRelease(t *testing.T) {
	// Every release floors its payout independently. Claiming 333 of
	// 1000 title units against a release paying 10 per interval yields
	// floor(333*10/1000)=3 per release.
	releases := []*Release{
		release(10, 110, 210, 10),
		release(10, 110, 210, 10),
	}
	total, _ := settleAll(120, 0, 333, releases)
	if total.Int64() != 6 {
		t.Fatalf("want 6, got %s", total)
	}
}

func TestClaimableAmountFullSchedule(t *testing.T) {
	releases := []*Release{
		release(100, 110, 210, 10),
		release(50, 110, 160, 10),
	}
	// At 135 the first release vested 2 intervals, the second vested 2.
	want := int64(2*100 + 2*50)
	got := ClaimableAmount(135, 0, 1000, releases)
	if got.Int64() != want {
		t.Fatalf("want %d, got %s", want, got)
	}
}

func TestRefundRelease(t *testing.T) {
	cases := map[string]struct {
		now  weave.UnixTime
		want int64
	}{
		"before the start refunds everything": {
			now: 100, want: 1000,
		},
		"at the start refunds everything": {
			now: 110, want: 1000,
		},
		"mid schedule refunds the unvested tail": {
			// Boundary at 130, 8 intervals left.
			now: 135, want: 800,
		},
		"on a boundary refunds from that boundary": {
			now: 130, want: 800,
		},
		"last interval refunds one": {
			now: 205, want: 100,
		},
		"at the end refunds nothing": {
			now: 210, want: 0,
		},
		"after the end refunds nothing": {
			now: 500, want: 0,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			r := release(100, 110, 210, 10)
			if got := refundRelease(tc.now, r); got.Int64() != tc.want {
				t.Fatalf("want %d, got %s", tc.want, got)
			}
		})
	}
}

func TestClaimAndRefundConserveValue(t *testing.T) {
	// Whatever the cancellation time, the vested payout plus the refund
	// must never exceed the post tax value of the schedule.
	r := release(100, 110, 210, 10)
	total := big.NewInt(1000)
	for now := weave.UnixTime(100); now <= 220; now++ {
		payout, _ := settleRelease(now, now, 1000, r)
		refund := refundRelease(now, r)
		sum := new(big.Int).Add(payout, refund)
		if sum.Cmp(total) > 0 {
			t.Fatalf("at %d payout %s plus refund %s exceeds %s", now, payout, refund, total)
		}
	}
}
