package uthread

import (
	"errors"
	"fmt"
)

// Code classifies the outcome of a runtime operation. The zero value,
// CodeSuccess, is never carried by a non-nil error.
type Code int

const (
	CodeSuccess Code = iota
	// CodeInvalidArgument covers null handles where prohibited, unknown
	// policy/type/detach-state, out-of-range stack/priority/nice/timeslice,
	// and operations on uninitialized or destroyed objects that cannot be
	// recovered.
	CodeInvalidArgument
	// CodeOutOfMemory covers allocation failure of a TCB, stack, or wait
	// queue.
	CodeOutOfMemory
	// CodeBusy covers trylock on a held resource, or destroy on a held or
	// non-empty resource.
	CodeBusy
	// CodeDeadlock covers join-on-self and errorcheck-mutex self-lock.
	CodeDeadlock
	// CodePermission covers unlock-by-non-holder on an errorcheck mutex,
	// and rwlock unlock when the caller holds neither mode.
	CodePermission
	// CodeTimedOut covers any timed wait that exceeded its absolute
	// deadline.
	CodeTimedOut
	// CodeTryAgain covers semaphore trywait on a zero value.
	CodeTryAgain
	// CodeNoSuchThread covers a handle referencing a thread no longer in
	// the thread table.
	CodeNoSuchThread
)

// String returns a short, stable, lowercase name for the code.
func (c Code) String() string {
	switch c {
	case CodeSuccess:
		return "success"
	case CodeInvalidArgument:
		return "invalid-argument"
	case CodeOutOfMemory:
		return "out-of-memory"
	case CodeBusy:
		return "busy"
	case CodeDeadlock:
		return "deadlock-would-occur"
	case CodePermission:
		return "permission"
	case CodeTimedOut:
		return "timed-out"
	case CodeTryAgain:
		return "try-again"
	case CodeNoSuchThread:
		return "no-such-thread"
	default:
		return fmt.Sprintf("code(%d)", int(c))
	}
}

// RuntimeError is the error type returned by every fallible operation in
// this package. Operations never abort the process for a predictable
// misuse; only unrecoverable invariant violations call fatal (see below).
type RuntimeError struct {
	Code  Code
	Op    string
	Cause error
}

func (e *RuntimeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("uthread: %s: %s: %v", e.Op, e.Code, e.Cause)
	}
	return fmt.Sprintf("uthread: %s: %s", e.Op, e.Code)
}

// Unwrap returns the underlying cause for use with [errors.Is] and
// [errors.As].
func (e *RuntimeError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a *RuntimeError with the same Code, so
// callers can write errors.Is(err, uthread.ErrBusy) against the sentinel
// values below.
func (e *RuntimeError) Is(target error) bool {
	var t *RuntimeError
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// newErr constructs a *RuntimeError for the given operation and code.
func newErr(op string, code Code) error {
	return &RuntimeError{Op: op, Code: code}
}

// newErrCause constructs a *RuntimeError wrapping a lower-level cause.
func newErrCause(op string, code Code, cause error) error {
	return &RuntimeError{Op: op, Code: code, Cause: cause}
}

// Sentinel errors for errors.Is comparisons against a bare code, with no
// operation or cause attached.
var (
	ErrInvalidArgument = &RuntimeError{Code: CodeInvalidArgument}
	ErrOutOfMemory     = &RuntimeError{Code: CodeOutOfMemory}
	ErrBusy            = &RuntimeError{Code: CodeBusy}
	ErrDeadlock        = &RuntimeError{Code: CodeDeadlock}
	ErrPermission      = &RuntimeError{Code: CodePermission}
	ErrTimedOut        = &RuntimeError{Code: CodeTimedOut}
	ErrTryAgain        = &RuntimeError{Code: CodeTryAgain}
	ErrNoSuchThread    = &RuntimeError{Code: CodeNoSuchThread}
)

// fatal reports an unrecoverable internal-invariant violation: a null
// current thread where one is required by internal control flow, or a
// context-switch primitive failure. These are programmer errors in the
// runtime itself, not predictable misuse, so they log and panic rather
// than returning a Code.
func fatal(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	getGlobalLogger().Log(LogEntry{
		Level:    LevelError,
		Category: "fatal",
		Message:  msg,
	})
	panic("uthread: fatal: " + msg)
}
