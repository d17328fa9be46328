package token

import (
	"bytes"
	"testing"

	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/migration"
	"github.com/iov-one/weave/store"
	"github.com/iov-one/weave/weavetest"
	"github.com/iov-one/weave/weavetest/assert"
)

func TestControllerIssueMoveBurn(t *testing.T) {
	db := store.MemStore()
	migration.MustInitPkg(db, "token")
	ctrl := NewController()

	alice := weavetest.NewCondition().Address()
	bob := weavetest.NewCondition().Address()

	nonce, err := ctrl.Issue(db, "PAY", 1000, []byte("payload"), alice)
	assert.Nil(t, err)
	if nonce == 0 {
		t.Fatal("want a non zero nonce")
	}

	attrs, err := ctrl.Attributes(db, "PAY", nonce)
	assert.Nil(t, err)
	if !bytes.Equal(attrs, []byte("payload")) {
		t.Fatalf("unexpected attributes: %q", attrs)
	}

	q, err := ctrl.Quantity(db, alice, "PAY", nonce)
	assert.Nil(t, err)
	assert.Equal(t, uint64(1000), q)

	assert.Nil(t, ctrl.Move(db, alice, bob, "PAY", nonce, 400))

	q, err = ctrl.Quantity(db, alice, "PAY", nonce)
	assert.Nil(t, err)
	assert.Equal(t, uint64(600), q)
	q, err = ctrl.Quantity(db, bob, "PAY", nonce)
	assert.Nil(t, err)
	assert.Equal(t, uint64(400), q)

	// More than held cannot be moved.
	if err := ctrl.Move(db, bob, alice, "PAY", nonce, 401); !errors.ErrAmount.Is(err) {
		t.Fatalf("want an amount error, got %+v", err)
	}

	assert.Nil(t, ctrl.Burn(db, alice, "PAY", nonce, 600))
	assert.Nil(t, ctrl.Burn(db, bob, "PAY", nonce, 400))

	// The instance is gone once the whole supply is burned.
	if _, err := ctrl.Attributes(db, "PAY", nonce); !errors.ErrNotFound.Is(err) {
		t.Fatalf("want a not found error, got %+v", err)
	}
}

func TestControllerIssueSeparateInstances(t *testing.T) {
	db := store.MemStore()
	migration.MustInitPkg(db, "token")
	ctrl := NewController()

	alice := weavetest.NewCondition().Address()

	first, err := ctrl.Issue(db, "PAY", 1000, []byte("first"), alice)
	assert.Nil(t, err)
	second, err := ctrl.Issue(db, "PAY", 1000, []byte("second"), alice)
	assert.Nil(t, err)

	if first == second {
		t.Fatal("instances must not share a nonce")
	}

	// Burning one instance leaves the other untouched.
	assert.Nil(t, ctrl.Burn(db, alice, "PAY", first, 1000))
	q, err := ctrl.Quantity(db, alice, "PAY", second)
	assert.Nil(t, err)
	assert.Equal(t, uint64(1000), q)
}

func TestControllerIssueInvalid(t *testing.T) {
	db := store.MemStore()
	migration.MustInitPkg(db, "token")
	ctrl := NewController()

	dest := weavetest.NewCondition().Address()

	if _, err := ctrl.Issue(db, "not a ticker", 10, nil, dest); !errors.ErrInput.Is(err) {
		t.Fatalf("want an input error, got %+v", err)
	}
	if _, err := ctrl.Issue(db, "PAY", 0, nil, dest); !errors.ErrAmount.Is(err) {
		t.Fatalf("want an amount error, got %+v", err)
	}
}
