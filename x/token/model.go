package token

import (
	"encoding/binary"

	weave "github.com/iov-one/weave"
	"github.com/iov-one/weave/coin"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/migration"
	"github.com/iov-one/weave/orm"
)

func init() {
	migration.MustRegister(1, &TokenInfo{}, migration.NoModification)
	migration.MustRegister(1, &Holding{}, migration.NoModification)
}

var _ orm.CloneableData = (*TokenInfo)(nil)
var _ orm.CloneableData = (*Holding)(nil)

func (t *TokenInfo) Validate() error {
	if err := t.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "invalid metadata")
	}
	if !coin.IsCC(t.Ticker) {
		return errors.Wrapf(errors.ErrModel, "invalid ticker %q", t.Ticker)
	}
	if t.Nonce == 0 {
		return errors.Wrap(errors.ErrModel, "missing nonce")
	}
	return nil
}

func (t *TokenInfo) Copy() orm.CloneableData {
	attributes := make([]byte, len(t.Attributes))
	copy(attributes, t.Attributes)
	return &TokenInfo{
		Metadata:   t.Metadata.Copy(),
		Ticker:     t.Ticker,
		Nonce:      t.Nonce,
		Attributes: attributes,
		Supply:     t.Supply,
	}
}

func (h *Holding) Validate() error {
	if err := h.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "invalid metadata")
	}
	if h.Quantity == 0 {
		return errors.Wrap(errors.ErrModel, "empty holding")
	}
	return nil
}

func (h *Holding) Copy() orm.CloneableData {
	return &Holding{
		Metadata: h.Metadata.Copy(),
		Quantity: h.Quantity,
	}
}

// NewTokenInfoBucket returns the bucket keeping the shared state of all
// token instances, keyed by instanceKey.
func NewTokenInfoBucket() orm.ModelBucket {
	b := orm.NewModelBucket("tokeninfo", &TokenInfo{})
	return migration.NewModelBucket("token", b)
}

// NewHoldingBucket returns the bucket keeping per owner balances, keyed by
// holdingKey.
func NewHoldingBucket() orm.ModelBucket {
	b := orm.NewModelBucket("holding", &Holding{})
	return migration.NewModelBucket("token", b)
}

// Every issued instance gets a nonce from this sequence, unique across all
// tickers.
var nonceSeq = orm.NewSequence("token", "nonce")

func instanceKey(ticker string, nonce uint64) []byte {
	key := make([]byte, 0, len(ticker)+8)
	key = append(key, ticker...)
	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, nonce)
	return append(key, raw...)
}

func holdingKey(owner weave.Address, ticker string, nonce uint64) []byte {
	key := make([]byte, 0, len(owner)+len(ticker)+8)
	key = append(key, owner...)
	return append(key, instanceKey(ticker, nonce)...)
}
