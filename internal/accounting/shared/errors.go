package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrUnbalanced indicates the lines of a Scheduled or Posted entry do not sum to zero.
	ErrUnbalanced = errors.New("accounting: journal lines must balance")
	// ErrInactiveAccount indicates a current or future dated line hits an inactive account.
	ErrInactiveAccount = errors.New("accounting: account is inactive")
	// ErrCycleDetected indicates a loop in the account parent chain.
	ErrCycleDetected = errors.New("accounting: account hierarchy cycle")
	// ErrDuplicateDimension indicates a line already carries another value of the dimension.
	ErrDuplicateDimension = errors.New("accounting: dimension already tagged on line")
	// ErrLedgerOutOfBalance indicates a trial balance whose total is not zero.
	ErrLedgerOutOfBalance = errors.New("accounting: trial balance does not sum to zero")
	// ErrDisplayIDConflict signals a lost race on the per-company display id.
	ErrDisplayIDConflict = errors.New("accounting: display id already taken")
)

// UnbalancedEntryError carries the signed sum of the offending line set.
type UnbalancedEntryError struct {
	Discrepancy int64
}

func (e *UnbalancedEntryError) Error() string {
	return fmt.Sprintf("%s: discrepancy %d", ErrUnbalanced, e.Discrepancy)
}

func (e *UnbalancedEntryError) Unwrap() error { return ErrUnbalanced }

// InactiveAccountError names the inactive account a line referenced.
type InactiveAccountError struct {
	AccountID string
}

func (e *InactiveAccountError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInactiveAccount, e.AccountID)
}

func (e *InactiveAccountError) Unwrap() error { return ErrInactiveAccount }

// CycleDetectedError names the account at which the walk revisited itself.
type CycleDetectedError struct {
	AccountID string
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("%s at %s", ErrCycleDetected, e.AccountID)
}

func (e *CycleDetectedError) Unwrap() error { return ErrCycleDetected }

// DuplicateDimensionError reports the conflicting tag.
type DuplicateDimensionError struct {
	LineID          string
	DimensionID     string
	ExistingValueID string
}

func (e *DuplicateDimensionError) Error() string {
	return fmt.Sprintf("%s: line %s dimension %s has value %s", ErrDuplicateDimension, e.LineID, e.DimensionID, e.ExistingValueID)
}

func (e *DuplicateDimensionError) Unwrap() error { return ErrDuplicateDimension }

// OutOfBalanceError carries the non-zero total of a trial balance.
type OutOfBalanceError struct {
	PeriodID string
	Total    int64
}

func (e *OutOfBalanceError) Error() string {
	return fmt.Sprintf("%s: period %s total %d", ErrLedgerOutOfBalance, e.PeriodID, e.Total)
}

func (e *OutOfBalanceError) Unwrap() error { return ErrLedgerOutOfBalance }
