package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAmount is returned for non-positive amounts
	ErrInvalidAmount = errors.New("amount must be greater than zero")
	// ErrInsufficientFunds is returned when the sender's available balance is below the amount
	ErrInsufficientFunds = errors.New("insufficient available balance")
	// ErrNotFound is returned for an unknown entry id
	ErrNotFound = errors.New("entry not found")
	// ErrAlreadyReversed is returned for a transition out of reversed
	ErrAlreadyReversed = errors.New("entry already reversed")
	// ErrSameAccount is returned when a transfer names one account on both sides
	ErrSameAccount = errors.New("cannot transfer to the same account")
	// ErrInvalidAccount is returned for an empty account id
	ErrInvalidAccount = errors.New("account id cannot be empty")
)

// UnconfirmedFundsMessage is the TransferResult error text for an instant
// transfer the sender's available balance cannot cover
const UnconfirmedFundsMessage = "You can't send shadow funds until they're confirmed."

// StoreError wraps a failure of the backing store. Ledger state is unchanged
// when one is returned.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("ledger store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
