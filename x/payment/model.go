package payment

import (
	weave "github.com/iov-one/weave"
	"github.com/iov-one/weave/coin"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/migration"
	"github.com/iov-one/weave/orm"
)

func init() {
	migration.MustRegister(1, &CancelRecord{}, migration.NoModification)
}

// payloadVersion is stamped into every issued title so that old payloads can
// be told apart after a format change.
const payloadVersion = 2

var _ orm.CloneableData = (*CancelRecord)(nil)

func (rec *CancelRecord) Validate() error {
	if err := rec.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "invalid metadata")
	}
	if rec.CancelDate == 0 {
		return errors.Wrap(errors.ErrModel, "missing cancel date")
	}
	return nil
}

func (rec *CancelRecord) Copy() orm.CloneableData {
	return &CancelRecord{
		Metadata:   rec.Metadata.Copy(),
		CancelDate: rec.CancelDate,
	}
}

func (p *Payment) Validate() error {
	if err := p.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "invalid metadata")
	}
	if p.Version != payloadVersion {
		return errors.Wrapf(errors.ErrModel, "unsupported payload version %d", p.Version)
	}
	if p.PaymentId == 0 {
		return errors.Wrap(errors.ErrModel, "missing payment id")
	}
	if !coin.IsCC(p.ReleaseTicker) {
		return errors.Wrapf(errors.ErrModel, "invalid ticker %q", p.ReleaseTicker)
	}
	if err := p.Creator.Validate(); err != nil {
		return errors.Wrap(err, "creator")
	}
	if len(p.Amount) == 0 {
		return errors.Wrap(errors.ErrModel, "missing amount")
	}
	return validateReleases(p.Releases, errors.ErrModel)
}

func (c *Cancellation) Validate() error {
	if err := c.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "invalid metadata")
	}
	if c.PaymentId == 0 {
		return errors.Wrap(errors.ErrModel, "missing payment id")
	}
	if !coin.IsCC(c.ReleaseTicker) {
		return errors.Wrapf(errors.ErrModel, "invalid ticker %q", c.ReleaseTicker)
	}
	return validateReleases(c.Releases, errors.ErrModel)
}

// validateReleases checks the structural rules every release schedule must
// obey, in creation requests as well as in issued title payloads. Model
// validation returns a different class of error than message validation,
// that is why the base error class must be given.
func validateReleases(rs []*Release, baseErr *errors.Error) error {
	if len(rs) == 0 {
		return errors.Wrap(baseErr, "no releases")
	}
	for i, r := range rs {
		if len(r.Amount) == 0 {
			return errors.Wrapf(ErrInvalidRelease, "release %d missing amount", i)
		}
		if r.EndDate <= r.StartDate {
			return errors.Wrapf(ErrInvalidRelease, "release %d end date not after start date", i)
		}
		if r.Interval < 1 || r.Interval > maxInterval {
			return errors.Wrapf(ErrInvalidRelease, "release %d interval out of range", i)
		}
		if (r.EndDate-r.StartDate)%weave.UnixTime(r.Interval) != 0 {
			return errors.Wrapf(ErrInvalidRelease, "release %d duration not a multiple of the interval", i)
		}
	}
	return nil
}

// NewCancelRecordBucket returns the bucket keeping the cancellation ledger.
// Records are keyed by the big endian payment id. A missing record means
// the payment was never cancelled.
func NewCancelRecordBucket() orm.ModelBucket {
	b := orm.NewModelBucket("cancel", &CancelRecord{})
	return migration.NewModelBucket("payment", b)
}

var paymentSeq = orm.NewSequence("payment", "id")

// PoolAccount returns the address holding the locked funds of all active
// payments.
func PoolAccount() weave.Address {
	return weave.NewCondition("payment", "pool", []byte("locked")).Address()
}
