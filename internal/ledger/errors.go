package ledger

import (
	"errors"
	"fmt"
)

// Kind classifies a ledger failure by the precondition that failed.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindInvalidArgument
	KindAlreadyExists
	KindNotFound
	KindUnauthorized
	KindCapacityExceeded
	KindInsufficientFunds
	KindNothingToClaim
	KindVaultUnderfunded
	KindOverflow
)

var kindNames = map[Kind]string{
	KindUnknown:           "Unknown",
	KindInvalidArgument:   "InvalidArgument",
	KindAlreadyExists:     "AlreadyExists",
	KindNotFound:          "NotFound",
	KindUnauthorized:      "Unauthorized",
	KindCapacityExceeded:  "CapacityExceeded",
	KindInsufficientFunds: "InsufficientFunds",
	KindNothingToClaim:    "NothingToClaim",
	KindVaultUnderfunded:  "VaultUnderfunded",
	KindOverflow:          "Overflow",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Retryable reports whether the caller may retry after changing external state.
// Only a short balance qualifies: the depositor or authority can fund the account.
func (k Kind) Retryable() bool {
	return k == KindInsufficientFunds
}

// Fatal reports whether the failure indicates an earlier invariant breach.
func (k Kind) Fatal() bool {
	return k == KindVaultUnderfunded
}

// Error is the structured error returned by every ledger and custody operation.
type Error struct {
	Kind Kind
	Op   string // entry point that failed, e.g. "user_commit_to_collection"
	Msg  string
	Err  error // underlying cause, if any
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op == "" {
		return fmt.Sprintf("%s: %s", e.Kind, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the kind sentinels below, so errors.Is(err, ErrNotFound) works
// for any NotFound error regardless of op and message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// Kind sentinels for errors.Is.
var (
	ErrInvalidArgument   = &Error{Kind: KindInvalidArgument}
	ErrAlreadyExists     = &Error{Kind: KindAlreadyExists}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized}
	ErrCapacityExceeded  = &Error{Kind: KindCapacityExceeded}
	ErrInsufficientFunds = &Error{Kind: KindInsufficientFunds}
	ErrNothingToClaim    = &Error{Kind: KindNothingToClaim}
	ErrVaultUnderfunded  = &Error{Kind: KindVaultUnderfunded}
	ErrOverflow          = &Error{Kind: KindOverflow}
)

// Errorf builds an Error of the given kind.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// withOp stamps op onto errors raised below the processor (custody, store)
// that did not know which entry point they were serving.
func withOp(op string, err error) error {
	var e *Error
	if errors.As(err, &e) && e.Op == "" {
		return &Error{Kind: e.Kind, Op: op, Msg: e.Msg, Err: e.Err}
	}
	return err
}
