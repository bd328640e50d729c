package wallet

import (
	"errors"
	"fmt"
)

var (
	// ErrWalletNotFound is returned when no wallet exists for the lookup
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrInvalidAmount is returned when amount is <= 0
	ErrInvalidAmount = errors.New("invalid amount: must be greater than 0")
)

// InsufficientBalanceError rejects a debit that would take the balance
// negative. It is a business rejection, not a fault, and carries the current
// balance for the caller's response.
type InsufficientBalanceError struct {
	Balance   float64
	Requested float64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: have %.2f, need %.2f", e.Balance, e.Requested)
}
