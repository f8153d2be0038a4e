package airdrop

import (
	"errors"
	"fmt"
)

var (
	// ErrQuery marks a failed read-only contract call.
	ErrQuery = errors.New("query failed")
	// ErrTransaction marks a state-changing call that was rejected, reverted or never confirmed.
	ErrTransaction = errors.New("transaction failed")
	// ErrReverted is wrapped by ErrTransaction when the receipt reports failure.
	ErrReverted = errors.New("execution reverted")
)

// Error carries the failing operation together with its taxonomy kind.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func queryError(op string, err error) error {
	return &Error{Kind: ErrQuery, Op: op, Err: err}
}

func txError(op string, err error) error {
	return &Error{Kind: ErrTransaction, Op: op, Err: err}
}
