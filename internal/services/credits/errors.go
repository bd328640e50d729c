package credits

import (
	"errors"
	"fmt"
)

// ErrInvalidAmount is returned when amount is <= 0
var ErrInvalidAmount = errors.New("invalid amount: must be greater than 0")

// InsufficientCreditsError rejects a debit larger than the current credit
// balance. It carries the balance for the caller's response.
type InsufficientCreditsError struct {
	Balance   int
	Requested int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: have %d, need %d", e.Balance, e.Requested)
}
