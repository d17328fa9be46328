package payment

import (
	"math/big"
	"testing"

	weave "github.com/iov-one/weave"
	"github.com/iov-one/weave/coin"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/weavetest"
)

func validCreateMsg() *CreateMsg {
	return &CreateMsg{
		Metadata:    &weave.Metadata{Schema: 1},
		PaymentType: Vesting,
		Name:        "team vesting",
		Cancelable:  true,
		Receivers:   []weave.Address{weavetest.NewCondition().Address()},
		Releases: []*Release{
			{
				Amount:    amountBytes(big.NewInt(1000000000)),
				StartDate: 110,
				EndDate:   210,
				Interval:  10,
			},
		},
		Amount: coin.NewCoinp(1, 0, "IOV"),
	}
}

func TestCreateMsgValidate(t *testing.T) {
	cases := map[string]struct {
		mutate  func(*CreateMsg)
		wantErr *errors.Error
	}{
		"valid message": {
			mutate: func(*CreateMsg) {},
		},
		"missing metadata": {
			mutate:  func(msg *CreateMsg) { msg.Metadata = nil },
			wantErr: errors.ErrMetadata,
		},
		"no receivers": {
			mutate:  func(msg *CreateMsg) { msg.Receivers = nil },
			wantErr: errors.ErrMsg,
		},
		"invalid receiver address": {
			mutate:  func(msg *CreateMsg) { msg.Receivers = []weave.Address{[]byte("too-short")} },
			wantErr: errors.ErrInput,
		},
		"no releases": {
			mutate:  func(msg *CreateMsg) { msg.Releases = nil },
			wantErr: errors.ErrMsg,
		},
		"end before start": {
			mutate: func(msg *CreateMsg) {
				msg.Releases[0].StartDate = 210
				msg.Releases[0].EndDate = 110
			},
			wantErr: ErrInvalidRelease,
		},
		"end equals start": {
			mutate: func(msg *CreateMsg) {
				msg.Releases[0].EndDate = msg.Releases[0].StartDate
			},
			wantErr: ErrInvalidRelease,
		},
		"zero interval": {
			mutate:  func(msg *CreateMsg) { msg.Releases[0].Interval = 0 },
			wantErr: ErrInvalidRelease,
		},
		"interval above one year": {
			mutate:  func(msg *CreateMsg) { msg.Releases[0].Interval = maxInterval + 1 },
			wantErr: ErrInvalidRelease,
		},
		"duration not a multiple of the interval": {
			mutate:  func(msg *CreateMsg) { msg.Releases[0].Interval = 7 },
			wantErr: ErrInvalidRelease,
		},
		"release without amount": {
			mutate:  func(msg *CreateMsg) { msg.Releases[0].Amount = nil },
			wantErr: ErrInvalidRelease,
		},
		"missing amount": {
			mutate:  func(msg *CreateMsg) { msg.Amount = nil },
			wantErr: errors.ErrMsg,
		},
		"zero amount": {
			mutate:  func(msg *CreateMsg) { msg.Amount = coin.NewCoinp(0, 0, "IOV") },
			wantErr: errors.ErrAmount,
		},
		"negative amount": {
			mutate:  func(msg *CreateMsg) { msg.Amount = coin.NewCoinp(-1, 0, "IOV") },
			wantErr: errors.ErrAmount,
		},
		"unknown payment type": {
			mutate:  func(msg *CreateMsg) { msg.PaymentType = 66 },
			wantErr: errors.ErrMsg,
		},
		"name too long": {
			mutate: func(msg *CreateMsg) {
				name := make([]byte, maxNameLength+1)
				for i := range name {
					name[i] = 'x'
				}
				msg.Name = string(name)
			},
			wantErr: errors.ErrMsg,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			msg := validCreateMsg()
			tc.mutate(msg)
			if err := msg.Validate(); !tc.wantErr.Is(err) {
				t.Fatalf("want %v, got %+v", tc.wantErr, err)
			}
		})
	}
}

func TestClaimMsgValidate(t *testing.T) {
	cases := map[string]struct {
		msg     *ClaimMsg
		wantErr *errors.Error
	}{
		"valid message": {
			msg: &ClaimMsg{
				Metadata: &weave.Metadata{Schema: 1},
				Claims:   []*TitleClaim{{Nonce: 5, Quantity: 1000}},
			},
		},
		"no claims": {
			msg: &ClaimMsg{
				Metadata: &weave.Metadata{Schema: 1},
			},
			wantErr: errors.ErrMsg,
		},
		"missing nonce": {
			msg: &ClaimMsg{
				Metadata: &weave.Metadata{Schema: 1},
				Claims:   []*TitleClaim{{Quantity: 1000}},
			},
			wantErr: errors.ErrMsg,
		},
		"zero quantity": {
			msg: &ClaimMsg{
				Metadata: &weave.Metadata{Schema: 1},
				Claims:   []*TitleClaim{{Nonce: 5}},
			},
			wantErr: errors.ErrMsg,
		},
		"quantity above a full title": {
			msg: &ClaimMsg{
				Metadata: &weave.Metadata{Schema: 1},
				Claims:   []*TitleClaim{{Nonce: 5, Quantity: 1001}},
			},
			wantErr: errors.ErrMsg,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if err := tc.msg.Validate(); !tc.wantErr.Is(err) {
				t.Fatalf("want %v, got %+v", tc.wantErr, err)
			}
		})
	}
}

func TestCancelMsgValidate(t *testing.T) {
	cases := map[string]struct {
		msg     *CancelMsg
		wantErr *errors.Error
	}{
		"valid message": {
			msg: &CancelMsg{
				Metadata:      &weave.Metadata{Schema: 1},
				Cancellations: []*TitleClaim{{Nonce: 3, Quantity: 1}},
			},
		},
		"no cancellations": {
			msg: &CancelMsg{
				Metadata: &weave.Metadata{Schema: 1},
			},
			wantErr: errors.ErrMsg,
		},
		"quantity other than one": {
			msg: &CancelMsg{
				Metadata:      &weave.Metadata{Schema: 1},
				Cancellations: []*TitleClaim{{Nonce: 3, Quantity: 2}},
			},
			wantErr: errors.ErrMsg,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if err := tc.msg.Validate(); !tc.wantErr.Is(err) {
				t.Fatalf("want %v, got %+v", tc.wantErr, err)
			}
		})
	}
}
