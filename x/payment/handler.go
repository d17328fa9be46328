package payment

import (
	"encoding/binary"
	"math/big"

	weave "github.com/iov-one/weave"
	"github.com/iov-one/weave/coin"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/gconf"
	"github.com/iov-one/weave/migration"
	"github.com/iov-one/weave/orm"
	"github.com/iov-one/weave/x"
)

const (
	createPaymentCost int64 = 300
	claimPaymentCost  int64 = 200
	cancelPaymentCost int64 = 200
)

// CashController is the functionality needed to move the locked funds
// around. This is a subset of the cash controller functionality.
type CashController interface {
	Balance(weave.KVStore, weave.Address) (coin.Coins, error)
	MoveCoins(weave.KVStore, weave.Address, weave.Address, coin.Coin) error
}

// TitleLedger issues, burns and inspects the bearer title tokens that carry
// payment state.
type TitleLedger interface {
	Issue(db weave.KVStore, ticker string, quantity uint64, attributes []byte, dest weave.Address) (uint64, error)
	Burn(db weave.KVStore, owner weave.Address, ticker string, nonce uint64, quantity uint64) error
	Attributes(db weave.ReadOnlyKVStore, ticker string, nonce uint64) ([]byte, error)
}

// RegisterRoutes will instantiate and register all handlers in this package.
func RegisterRoutes(r weave.Registry, auth x.Authenticator, ctrl CashController, titles TitleLedger) {
	r = migration.SchemaMigratingRegistry("payment", r)
	bucket := NewCancelRecordBucket()

	r.Handle(&CreateMsg{}, &createHandler{auth: auth, ctrl: ctrl, titles: titles})
	r.Handle(&ClaimMsg{}, &claimHandler{auth: auth, ctrl: ctrl, titles: titles, bucket: bucket})
	r.Handle(&CancelMsg{}, &cancelHandler{auth: auth, ctrl: ctrl, titles: titles, bucket: bucket})
	r.Handle(&UpdateConfigurationMsg{},
		gconf.NewUpdateConfigurationHandler("payment", &Configuration{}, auth, migration.CurrentAdmin))
}

// RegisterQuery will register the cancellation ledger as "/cancelrecords".
func RegisterQuery(qr weave.QueryRouter) {
	NewCancelRecordBucket().Register("cancelrecords", qr)
}

// paymentKey returns the cancellation ledger key of a payment.
func paymentKey(id uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, id)
	return key
}

// cancelDate returns the time a payment was cancelled at, zero when it was
// never cancelled.
func cancelDate(db weave.KVStore, bucket orm.ModelBucket, id uint64) (weave.UnixTime, error) {
	var rec CancelRecord
	switch err := bucket.One(db, paymentKey(id), &rec); {
	case err == nil:
		return rec.CancelDate, nil
	case errors.ErrNotFound.Is(err):
		return 0, nil
	default:
		return 0, errors.Wrap(err, "cancellation ledger")
	}
}

type createHandler struct {
	auth   x.Authenticator
	ctrl   CashController
	titles TitleLedger
}

var _ weave.Handler = (*createHandler)(nil)

func (h *createHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: createPaymentCost}, nil
}

func (h *createHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, conf, sender, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	principal := coinUnits(*msg.Amount)
	receivers := big.NewInt(int64(len(msg.Receivers)))
	feeFactor := big.NewInt(oneTitleUnit - int64(conf.Fee))

	// Single unit payments carry an indivisible asset and are exempt from
	// the minimum rate rule.
	unitPayment := principal.Cmp(big.NewInt(1)) == 0

	totalAmount := big.NewInt(0)
	totalPostTax := big.NewInt(0)
	releases := make([]*Release, 0, len(msg.Releases))
	for i, r := range msg.Releases {
		amount := bigAmount(r.Amount)
		duration := big.NewInt(int64(r.EndDate - r.StartDate))
		interval := big.NewInt(int64(r.Interval))

		postTax := new(big.Int).Mul(amount, feeFactor)
		postTax.Div(postTax, big.NewInt(oneTitleUnit))

		// Pro rata payout per whole interval, per receiver. Each
		// division floors, the interval multiplication comes last so
		// that no precision is given away before it.
		perInterval := postTax.Div(postTax, duration)
		perInterval.Div(perInterval, receivers)
		perInterval.Mul(perInterval, interval)

		if !unitPayment && perInterval.Cmp(big.NewInt(minIntervalRate)) <= 0 {
			return nil, errors.Wrapf(ErrRateBelowMinimum, "release %d", i)
		}

		// What the titles of this release will pay out in total. The
		// flooring above makes this slightly less than the post tax
		// amount, the difference stays with the configuration owner.
		postTaxActual := new(big.Int).Mul(perInterval, duration)
		postTaxActual.Mul(postTaxActual, receivers)
		postTaxActual.Div(postTaxActual, interval)

		totalAmount.Add(totalAmount, amount)
		totalPostTax.Add(totalPostTax, postTaxActual)

		releases = append(releases, &Release{
			Amount:    amountBytes(perInterval),
			StartDate: r.StartDate,
			EndDate:   r.EndDate,
			Interval:  r.Interval,
		})
	}

	if principal.Cmp(totalAmount) != 0 {
		return nil, errors.Wrap(ErrAmountMismatch, "release amounts do not sum up to the payment amount")
	}

	if err := h.ctrl.MoveCoins(db, sender, PoolAccount(), *msg.Amount); err != nil {
		return nil, errors.Wrap(err, "lock funds")
	}
	tax := new(big.Int).Sub(principal, totalPostTax)
	if tax.Sign() > 0 {
		taxCoin, err := asCoin(tax, msg.Amount.Ticker)
		if err != nil {
			return nil, err
		}
		if err := h.ctrl.MoveCoins(db, PoolAccount(), conf.Owner, taxCoin); err != nil {
			return nil, errors.Wrap(err, "pay tax")
		}
	}

	startDate := msg.Releases[0].StartDate
	endDate := msg.Releases[0].EndDate
	for _, r := range msg.Releases[1:] {
		startDate = minTime(startDate, r.StartDate)
		if r.EndDate > endDate {
			endDate = r.EndDate
		}
	}

	ids := make([]byte, 0, 8*len(msg.Receivers))
	for _, receiver := range msg.Receivers {
		key, err := paymentSeq.NextVal(db)
		if err != nil {
			return nil, errors.Wrap(err, "acquire payment id")
		}
		id := binary.BigEndian.Uint64(key)
		ids = append(ids, key...)

		payment := Payment{
			Metadata:      &weave.Metadata{Schema: 1},
			Version:       payloadVersion,
			PaymentType:   msg.PaymentType,
			PaymentId:     id,
			Name:          msg.Name,
			StartDate:     startDate,
			EndDate:       endDate,
			ReleaseTicker: msg.Amount.Ticker,
			Creator:       sender,
			Amount:        amountBytes(totalPostTax),
			Cancelable:    msg.Cancelable,
			Releases:      releases,
		}
		raw, err := payment.Marshal()
		if err != nil {
			return nil, errors.Wrap(err, "marshal payment")
		}
		if _, err := h.titles.Issue(db, conf.PaymentTicker, oneTitleUnit, raw, receiver); err != nil {
			return nil, errors.Wrap(err, "issue title")
		}

		if msg.Cancelable {
			cancellation := Cancellation{
				Metadata:      &weave.Metadata{Schema: 1},
				PaymentId:     id,
				ReleaseTicker: msg.Amount.Ticker,
				Releases:      releases,
			}
			raw, err := cancellation.Marshal()
			if err != nil {
				return nil, errors.Wrap(err, "marshal cancellation")
			}
			if _, err := h.titles.Issue(db, conf.CancelTicker, 1, raw, sender); err != nil {
				return nil, errors.Wrap(err, "issue cancellation title")
			}
		}
	}

	return &weave.DeliverResult{Data: ids}, nil
}

func (h *createHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*CreateMsg, *Configuration, weave.Address, error) {
	var msg CreateMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	blockTime, err := weave.BlockTime(ctx)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "block time")
	}
	now := weave.AsUnixTime(blockTime)
	for i, r := range msg.Releases {
		if r.StartDate < now {
			return nil, nil, nil, errors.Wrapf(ErrInvalidRelease, "release %d starts in the past", i)
		}
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, nil, nil, err
	}
	sender := x.AnySigner(ctx, h.auth)
	if sender == nil {
		return nil, nil, nil, errors.Wrap(errors.ErrUnauthorized, "no signer")
	}
	return &msg, conf, sender.Address(), nil
}

type claimHandler struct {
	auth   x.Authenticator
	ctrl   CashController
	titles TitleLedger
	bucket orm.ModelBucket
}

var _ weave.Handler = (*claimHandler)(nil)

func (h *claimHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: claimPaymentCost}, nil
}

func (h *claimHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, sender, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, err
	}
	blockTime, err := weave.BlockTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "block time")
	}
	now := weave.AsUnixTime(blockTime)

	for i, claim := range msg.Claims {
		var payment Payment
		if err := h.loadTitle(db, conf.PaymentTicker, claim.Nonce, &payment); err != nil {
			return nil, errors.Wrapf(err, "claim %d", i)
		}
		cancelled, err := cancelDate(db, h.bucket, payment.PaymentId)
		if err != nil {
			return nil, err
		}
		payout, survivors := settleAll(now, cancelled, claim.Quantity, payment.Releases)

		// Burning the presented quantity proves possession. The whole
		// transaction is rolled back when the holder presented more
		// than owned.
		if err := h.titles.Burn(db, sender, conf.PaymentTicker, claim.Nonce, claim.Quantity); err != nil {
			return nil, errors.Wrapf(err, "claim %d", i)
		}

		if payout.Sign() > 0 {
			c, err := asCoin(payout, payment.ReleaseTicker)
			if err != nil {
				return nil, err
			}
			if err := h.ctrl.MoveCoins(db, PoolAccount(), sender, c); err != nil {
				return nil, errors.Wrapf(err, "claim %d payout", i)
			}
		}

		if len(survivors) != 0 {
			payment.Releases = survivors
			raw, err := payment.Marshal()
			if err != nil {
				return nil, errors.Wrap(err, "marshal payment")
			}
			if _, err := h.titles.Issue(db, conf.PaymentTicker, claim.Quantity, raw, sender); err != nil {
				return nil, errors.Wrapf(err, "claim %d reissue", i)
			}
		}
	}
	return &weave.DeliverResult{}, nil
}

// loadTitle resolves and validates the payload of a title token instance.
func (h *claimHandler) loadTitle(db weave.KVStore, ticker string, nonce uint64, payment *Payment) error {
	raw, err := h.titles.Attributes(db, ticker, nonce)
	if err != nil {
		return errors.Wrap(ErrInvalidTitle, err.Error())
	}
	if err := payment.Unmarshal(raw); err != nil {
		return errors.Wrap(ErrInvalidTitle, err.Error())
	}
	if err := payment.Validate(); err != nil {
		return errors.Wrap(err, "title payload")
	}
	return nil
}

func (h *claimHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*ClaimMsg, weave.Address, error) {
	var msg ClaimMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	sender := x.AnySigner(ctx, h.auth)
	if sender == nil {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "no signer")
	}
	return &msg, sender.Address(), nil
}

type cancelHandler struct {
	auth   x.Authenticator
	ctrl   CashController
	titles TitleLedger
	bucket orm.ModelBucket
}

var _ weave.Handler = (*cancelHandler)(nil)

func (h *cancelHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: cancelPaymentCost}, nil
}

func (h *cancelHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, sender, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, err
	}
	blockTime, err := weave.BlockTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "block time")
	}
	now := weave.AsUnixTime(blockTime)

	for i, c := range msg.Cancellations {
		raw, err := h.titles.Attributes(db, conf.CancelTicker, c.Nonce)
		if err != nil {
			return nil, errors.Wrap(ErrInvalidTitle, err.Error())
		}
		var cancellation Cancellation
		if err := cancellation.Unmarshal(raw); err != nil {
			return nil, errors.Wrap(ErrInvalidTitle, err.Error())
		}
		if err := cancellation.Validate(); err != nil {
			return nil, errors.Wrap(err, "title payload")
		}

		// The record is overwritten when a cancellation is presented
		// again for the same payment. Each cancellation title is
		// burned below, so a second run requires a forged title and
		// pays out nothing from an already drained schedule.
		rec := CancelRecord{
			Metadata:   &weave.Metadata{Schema: 1},
			CancelDate: now,
		}
		if _, err := h.bucket.Put(db, paymentKey(cancellation.PaymentId), &rec); err != nil {
			return nil, errors.Wrap(err, "cancellation ledger")
		}

		if refund := refundAll(now, cancellation.Releases); refund.Sign() > 0 {
			refundCoin, err := asCoin(refund, cancellation.ReleaseTicker)
			if err != nil {
				return nil, err
			}
			if err := h.ctrl.MoveCoins(db, PoolAccount(), sender, refundCoin); err != nil {
				return nil, errors.Wrapf(err, "cancellation %d refund", i)
			}
		}

		if err := h.titles.Burn(db, sender, conf.CancelTicker, c.Nonce, 1); err != nil {
			return nil, errors.Wrapf(err, "cancellation %d", i)
		}
	}
	return &weave.DeliverResult{}, nil
}

func (h *cancelHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*CancelMsg, weave.Address, error) {
	var msg CancelMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	sender := x.AnySigner(ctx, h.auth)
	if sender == nil {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "no signer")
	}
	return &msg, sender.Address(), nil
}
