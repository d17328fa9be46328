package payment

import (
	"github.com/iov-one/weave/errors"
)

var (
	// ErrInvalidRelease is returned when a release schedule does not
	// satisfy the structural rules (ordering, interval bounds,
	// divisibility).
	ErrInvalidRelease = errors.Register(1100, "invalid release schedule")

	// ErrRateBelowMinimum is returned when the per interval payout of a
	// release would fall below the accepted minimum.
	ErrRateBelowMinimum = errors.Register(1101, "release rate below minimum")

	// ErrAmountMismatch is returned when the sum of release amounts does
	// not equal the transferred payment amount.
	ErrAmountMismatch = errors.Register(1102, "amount mismatch")

	// ErrInvalidTitle is returned when a presented title token cannot be
	// resolved or its payload cannot be interpreted.
	ErrInvalidTitle = errors.Register(1103, "invalid title token")
)
