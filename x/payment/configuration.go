package payment

import (
	"github.com/iov-one/weave/coin"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/gconf"
	"github.com/iov-one/weave/migration"
)

func init() {
	migration.MustRegister(1, &Configuration{}, migration.NoModification)
}

// Fee is expressed in per mille units, a value of 25 taxes creation with
// 2.5% of the principal.
const maxFee = 1000

func (c *Configuration) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Owner", c.Owner.Validate())
	if !coin.IsCC(c.PaymentTicker) {
		errs = errors.AppendField(errs, "PaymentTicker",
			errors.Wrap(errors.ErrInput, "not a valid ticker"))
	}
	if !coin.IsCC(c.CancelTicker) {
		errs = errors.AppendField(errs, "CancelTicker",
			errors.Wrap(errors.ErrInput, "not a valid ticker"))
	}
	if c.PaymentTicker == c.CancelTicker {
		errs = errors.AppendField(errs, "CancelTicker",
			errors.Wrap(errors.ErrInput, "must differ from the payment ticker"))
	}
	if c.Fee >= maxFee {
		errs = errors.AppendField(errs, "Fee",
			errors.Wrap(errors.ErrAmount, "must be below 1000 per mille"))
	}
	return errs
}

func loadConf(db gconf.Store) (*Configuration, error) {
	var conf Configuration
	if err := gconf.Load(db, "payment", &conf); err != nil {
		return nil, errors.Wrap(err, "load configuration")
	}
	return &conf, nil
}
