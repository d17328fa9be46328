package payment

import (
	weave "github.com/iov-one/weave"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/migration"
)

func init() {
	migration.MustRegister(1, &CreateMsg{}, migration.NoModification)
	migration.MustRegister(1, &ClaimMsg{}, migration.NoModification)
	migration.MustRegister(1, &CancelMsg{}, migration.NoModification)
	migration.MustRegister(1, &UpdateConfigurationMsg{}, migration.NoModification)
}

const (
	pathCreateMsg              = "payment/create"
	pathClaimMsg               = "payment/claim"
	pathCancelMsg              = "payment/cancel"
	pathUpdateConfigurationMsg = "payment/update_configuration"

	maxNameLength = 128
)

var _ weave.Msg = (*CreateMsg)(nil)
var _ weave.Msg = (*ClaimMsg)(nil)
var _ weave.Msg = (*CancelMsg)(nil)
var _ weave.Msg = (*UpdateConfigurationMsg)(nil)

func (msg *CreateMsg) Validate() error {
	if err := msg.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "invalid metadata")
	}
	if _, ok := PaymentType_name[int32(msg.PaymentType)]; !ok {
		return errors.Wrapf(errors.ErrMsg, "invalid payment type %d", msg.PaymentType)
	}
	if len(msg.Name) > maxNameLength {
		return errors.Wrap(errors.ErrMsg, "name too long")
	}
	if len(msg.Receivers) == 0 {
		return errors.Wrap(errors.ErrMsg, "at least one receiver required")
	}
	for i, r := range msg.Receivers {
		if err := r.Validate(); err != nil {
			return errors.Wrapf(err, "receiver %d", i)
		}
	}
	if err := validateReleases(msg.Releases, errors.ErrMsg); err != nil {
		return err
	}
	if msg.Amount == nil {
		return errors.Wrap(errors.ErrMsg, "amount missing")
	}
	if err := msg.Amount.Validate(); err != nil {
		return errors.Wrap(err, "invalid amount")
	}
	if !msg.Amount.IsPositive() {
		return errors.Wrap(errors.ErrAmount, "amount must be positive")
	}
	return nil
}

func (CreateMsg) Path() string {
	return pathCreateMsg
}

func (msg *ClaimMsg) Validate() error {
	if err := msg.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "invalid metadata")
	}
	if len(msg.Claims) == 0 {
		return errors.Wrap(errors.ErrMsg, "at least one claim required")
	}
	for i, c := range msg.Claims {
		if c.Nonce == 0 {
			return errors.Wrapf(errors.ErrMsg, "claim %d missing nonce", i)
		}
		if c.Quantity < 1 || c.Quantity > oneTitleUnit {
			return errors.Wrapf(errors.ErrMsg, "claim %d invalid quantity", i)
		}
	}
	return nil
}

func (ClaimMsg) Path() string {
	return pathClaimMsg
}

func (msg *CancelMsg) Validate() error {
	if err := msg.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "invalid metadata")
	}
	if len(msg.Cancellations) == 0 {
		return errors.Wrap(errors.ErrMsg, "at least one cancellation required")
	}
	for i, c := range msg.Cancellations {
		if c.Nonce == 0 {
			return errors.Wrapf(errors.ErrMsg, "cancellation %d missing nonce", i)
		}
		// Cancellation titles are issued with a quantity of one.
		if c.Quantity != 1 {
			return errors.Wrapf(errors.ErrMsg, "cancellation %d invalid quantity", i)
		}
	}
	return nil
}

func (CancelMsg) Path() string {
	return pathCancelMsg
}

func (msg *UpdateConfigurationMsg) Validate() error {
	if err := msg.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "invalid metadata")
	}
	if msg.Patch == nil {
		return errors.Wrap(errors.ErrMsg, "configuration patch missing")
	}
	return nil
}

func (UpdateConfigurationMsg) Path() string {
	return pathUpdateConfigurationMsg
}
