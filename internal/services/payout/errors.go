package payout

import "errors"

var (
	// ErrPayoutNotFound is returned when the payout does not exist
	ErrPayoutNotFound = errors.New("payout not found")

	// ErrPayoutNotOpen is returned when a terminal payout is processed or
	// cancelled again
	ErrPayoutNotOpen = errors.New("payout is not in an open state")

	// ErrOpenPayoutExists guards against double-batching one user's commissions
	ErrOpenPayoutExists = errors.New("user already has an open payout")

	// ErrBelowMinimumPayout is returned when the pending commission sum has not
	// reached the payout threshold
	ErrBelowMinimumPayout = errors.New("pending commissions below minimum payout amount")
)
