package token

import (
	weave "github.com/iov-one/weave"
	"github.com/iov-one/weave/coin"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/orm"
)

// Controller maintains token instances and who holds how much of each.
// Other packages consume it through narrow interfaces declaring only the
// functionality they need.
type Controller struct {
	tokens   orm.ModelBucket
	holdings orm.ModelBucket
}

// NewController returns a controller operating on the default buckets.
func NewController() *Controller {
	return &Controller{
		tokens:   NewTokenInfoBucket(),
		holdings: NewHoldingBucket(),
	}
}

// Issue creates a new instance of the given ticker with the given attribute
// payload and credits its whole supply to dest. It returns the nonce
// identifying the instance.
func (c *Controller) Issue(db weave.KVStore, ticker string, quantity uint64, attributes []byte, dest weave.Address) (uint64, error) {
	if !coin.IsCC(ticker) {
		return 0, errors.Wrapf(errors.ErrInput, "invalid ticker %q", ticker)
	}
	if quantity == 0 {
		return 0, errors.Wrap(errors.ErrAmount, "zero quantity")
	}
	if err := dest.Validate(); err != nil {
		return 0, errors.Wrap(err, "dest")
	}
	seq, err := nonceSeq.NextInt(db)
	if err != nil {
		return 0, errors.Wrap(err, "acquire nonce")
	}
	nonce := uint64(seq)
	info := TokenInfo{
		Metadata:   &weave.Metadata{Schema: 1},
		Ticker:     ticker,
		Nonce:      nonce,
		Attributes: attributes,
		Supply:     quantity,
	}
	if _, err := c.tokens.Put(db, instanceKey(ticker, nonce), &info); err != nil {
		return 0, errors.Wrap(err, "store token")
	}
	if err := c.credit(db, dest, ticker, nonce, quantity); err != nil {
		return 0, err
	}
	return nonce, nil
}

// Move transfers units of an instance between two addresses.
func (c *Controller) Move(db weave.KVStore, src, dest weave.Address, ticker string, nonce uint64, quantity uint64) error {
	if quantity == 0 {
		return errors.Wrap(errors.ErrAmount, "zero quantity")
	}
	if err := c.debit(db, src, ticker, nonce, quantity); err != nil {
		return err
	}
	return c.credit(db, dest, ticker, nonce, quantity)
}

// Burn destroys units of an instance held by owner, reducing the supply.
// The instance is removed once its supply reaches zero.
func (c *Controller) Burn(db weave.KVStore, owner weave.Address, ticker string, nonce uint64, quantity uint64) error {
	if quantity == 0 {
		return errors.Wrap(errors.ErrAmount, "zero quantity")
	}
	if err := c.debit(db, owner, ticker, nonce, quantity); err != nil {
		return err
	}
	var info TokenInfo
	if err := c.tokens.One(db, instanceKey(ticker, nonce), &info); err != nil {
		return errors.Wrap(err, "token")
	}
	if info.Supply < quantity {
		return errors.Wrap(errors.ErrState, "supply below burned quantity")
	}
	info.Supply -= quantity
	if info.Supply == 0 {
		return c.tokens.Delete(db, instanceKey(ticker, nonce))
	}
	_, err := c.tokens.Put(db, instanceKey(ticker, nonce), &info)
	return err
}

// Attributes returns the attribute payload assigned to an instance at issue
// time.
func (c *Controller) Attributes(db weave.ReadOnlyKVStore, ticker string, nonce uint64) ([]byte, error) {
	var info TokenInfo
	if err := c.tokens.One(db, instanceKey(ticker, nonce), &info); err != nil {
		return nil, errors.Wrap(err, "token")
	}
	return info.Attributes, nil
}

// Quantity returns how many units of an instance the owner holds. A missing
// holding is a zero balance, not an error.
func (c *Controller) Quantity(db weave.ReadOnlyKVStore, owner weave.Address, ticker string, nonce uint64) (uint64, error) {
	var holding Holding
	switch err := c.holdings.One(db, holdingKey(owner, ticker, nonce), &holding); {
	case err == nil:
		return holding.Quantity, nil
	case errors.ErrNotFound.Is(err):
		return 0, nil
	default:
		return 0, errors.Wrap(err, "holding")
	}
}

func (c *Controller) credit(db weave.KVStore, owner weave.Address, ticker string, nonce uint64, quantity uint64) error {
	key := holdingKey(owner, ticker, nonce)
	var holding Holding
	switch err := c.holdings.One(db, key, &holding); {
	case err == nil:
	case errors.ErrNotFound.Is(err):
		holding = Holding{Metadata: &weave.Metadata{Schema: 1}}
	default:
		return errors.Wrap(err, "holding")
	}
	holding.Quantity += quantity
	_, err := c.holdings.Put(db, key, &holding)
	return err
}

func (c *Controller) debit(db weave.KVStore, owner weave.Address, ticker string, nonce uint64, quantity uint64) error {
	key := holdingKey(owner, ticker, nonce)
	var holding Holding
	if err := c.holdings.One(db, key, &holding); err != nil {
		if errors.ErrNotFound.Is(err) {
			return errors.Wrap(errors.ErrAmount, "insufficient holding")
		}
		return errors.Wrap(err, "holding")
	}
	if holding.Quantity < quantity {
		return errors.Wrap(errors.ErrAmount, "insufficient holding")
	}
	holding.Quantity -= quantity
	if holding.Quantity == 0 {
		return c.holdings.Delete(db, key)
	}
	_, err := c.holdings.Put(db, key, &holding)
	return err
}
