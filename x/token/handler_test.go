package token

import (
	"context"
	"testing"

	weave "github.com/iov-one/weave"
	"github.com/iov-one/weave/app"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/migration"
	"github.com/iov-one/weave/store"
	"github.com/iov-one/weave/weavetest"
	"github.com/iov-one/weave/weavetest/assert"
)

func TestTransferHandler(t *testing.T) {
	alice := weavetest.NewCondition()
	bob := weavetest.NewCondition()
	stranger := weavetest.NewCondition()

	db := store.MemStore()
	migration.MustInitPkg(db, "token")

	rt := app.NewRouter()
	auth := &weavetest.CtxAuth{Key: "auth"}
	ctrl := NewController()
	RegisterRoutes(rt, auth, ctrl)

	nonce, err := ctrl.Issue(db, "PAY", 1000, []byte("payload"), alice.Address())
	assert.Nil(t, err)

	ctx := weave.WithHeight(context.Background(), 100)
	ctx = weave.WithChainID(ctx, "testchain-123")

	msg := &TransferMsg{
		Metadata: &weave.Metadata{Schema: 1},
		Dest:     bob.Address(),
		Ticker:   "PAY",
		Nonce:    nonce,
		Quantity: 400,
	}
	tx := &weavetest.Tx{Msg: msg}

	// Only the holder can move the title.
	if _, err := rt.Deliver(auth.SetConditions(ctx, stranger), db, tx); !errors.ErrAmount.Is(err) {
		t.Fatalf("want an amount error, got %+v", err)
	}

	_, err = rt.Deliver(auth.SetConditions(ctx, alice), db, tx)
	assert.Nil(t, err)

	q, err := ctrl.Quantity(db, bob.Address(), "PAY", nonce)
	assert.Nil(t, err)
	assert.Equal(t, uint64(400), q)
	q, err = ctrl.Quantity(db, alice.Address(), "PAY", nonce)
	assert.Nil(t, err)
	assert.Equal(t, uint64(600), q)
}

func TestTransferMsgValidate(t *testing.T) {
	cases := map[string]struct {
		mutate  func(*TransferMsg)
		wantErr *errors.Error
	}{
		"valid": {
			mutate:  func(*TransferMsg) {},
			wantErr: nil,
		},
		"missing metadata": {
			mutate: func(msg *TransferMsg) {
				msg.Metadata = nil
			},
			wantErr: errors.ErrMetadata,
		},
		"missing destination": {
			mutate: func(msg *TransferMsg) {
				msg.Dest = nil
			},
			wantErr: errors.ErrEmpty,
		},
		"invalid ticker": {
			mutate: func(msg *TransferMsg) {
				msg.Ticker = "x"
			},
			wantErr: errors.ErrMsg,
		},
		"missing nonce": {
			mutate: func(msg *TransferMsg) {
				msg.Nonce = 0
			},
			wantErr: errors.ErrMsg,
		},
		"zero quantity": {
			mutate: func(msg *TransferMsg) {
				msg.Quantity = 0
			},
			wantErr: errors.ErrMsg,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			msg := &TransferMsg{
				Metadata: &weave.Metadata{Schema: 1},
				Dest:     weavetest.NewCondition().Address(),
				Ticker:   "PAY",
				Nonce:    1,
				Quantity: 10,
			}
			tc.mutate(msg)
			if err := msg.Validate(); !tc.wantErr.Is(err) {
				t.Fatalf("want %v, got %+v", tc.wantErr, err)
			}
		})
	}
}
