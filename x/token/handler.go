package token

import (
	weave "github.com/iov-one/weave"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/migration"
	"github.com/iov-one/weave/x"
)

const transferCost int64 = 100

// RegisterQuery will register token instances as "/tokens" and holdings as
// "/holdings".
func RegisterQuery(qr weave.QueryRouter) {
	NewTokenInfoBucket().Register("tokens", qr)
	NewHoldingBucket().Register("holdings", qr)
}

// RegisterRoutes will instantiate and register all handlers in this package.
func RegisterRoutes(r weave.Registry, auth x.Authenticator, ctrl *Controller) {
	r = migration.SchemaMigratingRegistry("token", r)

	r.Handle(&TransferMsg{}, &transferHandler{auth: auth, ctrl: ctrl})
}

type transferHandler struct {
	auth x.Authenticator
	ctrl *Controller
}

var _ weave.Handler = (*transferHandler)(nil)

func (h *transferHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: transferCost}, nil
}

func (h *transferHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, sender, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.Move(db, sender, msg.Dest, msg.Ticker, msg.Nonce, msg.Quantity); err != nil {
		return nil, err
	}
	return &weave.DeliverResult{}, nil
}

func (h *transferHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*TransferMsg, weave.Address, error) {
	var msg TransferMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	sender := x.AnySigner(ctx, h.auth)
	if sender == nil {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "no signer")
	}
	return &msg, sender.Address(), nil
}
