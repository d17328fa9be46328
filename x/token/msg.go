package token

import (
	weave "github.com/iov-one/weave"
	"github.com/iov-one/weave/coin"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/migration"
)

func init() {
	migration.MustRegister(1, &TransferMsg{}, migration.NoModification)
}

const pathTransferMsg = "token/transfer"

var _ weave.Msg = (*TransferMsg)(nil)

func (msg *TransferMsg) Validate() error {
	if err := msg.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "invalid metadata")
	}
	if err := msg.Dest.Validate(); err != nil {
		return errors.Wrap(err, "dest")
	}
	if !coin.IsCC(msg.Ticker) {
		return errors.Wrapf(errors.ErrMsg, "invalid ticker %q", msg.Ticker)
	}
	if msg.Nonce == 0 {
		return errors.Wrap(errors.ErrMsg, "missing nonce")
	}
	if msg.Quantity == 0 {
		return errors.Wrap(errors.ErrMsg, "zero quantity")
	}
	return nil
}

func (TransferMsg) Path() string {
	return pathTransferMsg
}
