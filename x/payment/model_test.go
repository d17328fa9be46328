package payment

import (
	"math/big"
	"testing"

	weave "github.com/iov-one/weave"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/migration"
	"github.com/iov-one/weave/store"
	"github.com/iov-one/weave/weavetest"
	"github.com/iov-one/weave/weavetest/assert"
)

func validPayment() *Payment {
	return &Payment{
		Metadata:      &weave.Metadata{Schema: 1},
		Version:       payloadVersion,
		PaymentType:   Stream,
		PaymentId:     1,
		Name:          "salary stream",
		StartDate:     100,
		EndDate:       200,
		ReleaseTicker: "IOV",
		Creator:       weavetest.NewCondition().Address(),
		Amount:        amountBytes(big.NewInt(1000)),
		Releases: []*Release{
			{
				Amount:    amountBytes(big.NewInt(100)),
				StartDate: 100,
				EndDate:   200,
				Interval:  10,
			},
		},
	}
}

func TestPaymentValidate(t *testing.T) {
	cases := map[string]struct {
		mutate  func(*Payment)
		wantErr *errors.Error
	}{
		"valid": {
			mutate:  func(*Payment) {},
			wantErr: nil,
		},
		"missing metadata": {
			mutate: func(p *Payment) {
				p.Metadata = nil
			},
			wantErr: errors.ErrMetadata,
		},
		"unsupported payload version": {
			mutate: func(p *Payment) {
				p.Version = 1
			},
			wantErr: errors.ErrModel,
		},
		"missing payment id": {
			mutate: func(p *Payment) {
				p.PaymentId = 0
			},
			wantErr: errors.ErrModel,
		},
		"invalid ticker": {
			mutate: func(p *Payment) {
				p.ReleaseTicker = "io"
			},
			wantErr: errors.ErrModel,
		},
		"missing creator": {
			mutate: func(p *Payment) {
				p.Creator = nil
			},
			wantErr: errors.ErrEmpty,
		},
		"missing amount": {
			mutate: func(p *Payment) {
				p.Amount = nil
			},
			wantErr: errors.ErrModel,
		},
		"no releases": {
			mutate: func(p *Payment) {
				p.Releases = nil
			},
			wantErr: errors.ErrModel,
		},
		"release duration not divisible by the interval": {
			mutate: func(p *Payment) {
				p.Releases[0].Interval = 7
			},
			wantErr: ErrInvalidRelease,
		},
		"release interval above a year": {
			mutate: func(p *Payment) {
				p.Releases[0].StartDate = 0
				p.Releases[0].EndDate = 2 * weave.UnixTime(maxInterval)
				p.Releases[0].Interval = maxInterval + 1
			},
			wantErr: ErrInvalidRelease,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			p := validPayment()
			tc.mutate(p)
			if err := p.Validate(); !tc.wantErr.Is(err) {
				t.Fatalf("want %v, got %+v", tc.wantErr, err)
			}
		})
	}
}

func TestCancellationValidate(t *testing.T) {
	c := Cancellation{
		Metadata:      &weave.Metadata{Schema: 1},
		PaymentId:     1,
		ReleaseTicker: "IOV",
		Releases:      validPayment().Releases,
	}
	assert.Nil(t, c.Validate())

	c.PaymentId = 0
	if err := c.Validate(); !errors.ErrModel.Is(err) {
		t.Fatalf("want a model error, got %+v", err)
	}
}

func TestCancelRecordBucket(t *testing.T) {
	db := store.MemStore()
	migration.MustInitPkg(db, "payment")
	bucket := NewCancelRecordBucket()

	rec := CancelRecord{
		Metadata:   &weave.Metadata{Schema: 1},
		CancelDate: 1234,
	}
	_, err := bucket.Put(db, paymentKey(7), &rec)
	assert.Nil(t, err)

	var loaded CancelRecord
	assert.Nil(t, bucket.One(db, paymentKey(7), &loaded))
	assert.Equal(t, weave.UnixTime(1234), loaded.CancelDate)

	if err := bucket.One(db, paymentKey(8), &loaded); !errors.ErrNotFound.Is(err) {
		t.Fatalf("want not found, got %+v", err)
	}
}
