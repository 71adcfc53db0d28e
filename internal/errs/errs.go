// Package errs defines the error kinds surfaced by the ledger core.
//
// Every user-visible failure is an *Error carrying a Kind and a readable
// reason. Callers match kinds with errors.Is against the sentinels below:
//
//	if errors.Is(err, errs.ErrInsufficientCategoryBalance) { ... }
package errs

import (
	"errors"
	"fmt"
)

// Kind 错误类别
type Kind string

const (
	KindInvalidAccount               Kind = "InvalidAccount"
	KindZeroOrNegativeAmount         Kind = "ZeroOrNegativeAmount"
	KindInsufficientCategoryBalance  Kind = "InsufficientCategoryBalance"
	KindReadyToAssignWouldGoNegative Kind = "ReadyToAssignWouldGoNegative"
	KindGoalNotFound                 Kind = "GoalNotFound"
	KindScheduleNotFound             Kind = "ScheduleNotFound"
	KindDuplicateMaterialization     Kind = "DuplicateMaterialization"
	KindLedgerNotFound               Kind = "LedgerNotFound"
	KindTransactionNotFound          Kind = "TransactionNotFound"
	KindInvalidArgument              Kind = "InvalidArgument"
)

// Error is a ledger error of a known kind.
type Error struct {
	Kind   Kind
	Reason string
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// Is matches any *Error of the same kind, so wrapped errors compare equal
// to the sentinels regardless of reason.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrInvalidAccount               = &Error{Kind: KindInvalidAccount}
	ErrZeroOrNegativeAmount         = &Error{Kind: KindZeroOrNegativeAmount}
	ErrInsufficientCategoryBalance  = &Error{Kind: KindInsufficientCategoryBalance}
	ErrReadyToAssignWouldGoNegative = &Error{Kind: KindReadyToAssignWouldGoNegative}
	ErrGoalNotFound                 = &Error{Kind: KindGoalNotFound}
	ErrScheduleNotFound             = &Error{Kind: KindScheduleNotFound}
	ErrDuplicateMaterialization     = &Error{Kind: KindDuplicateMaterialization}
	ErrLedgerNotFound               = &Error{Kind: KindLedgerNotFound}
	ErrTransactionNotFound          = &Error{Kind: KindTransactionNotFound}
	ErrInvalidArgument              = &Error{Kind: KindInvalidArgument}
)

// New builds an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
