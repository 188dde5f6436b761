package transfer

import (
	"errors"
	"fmt"
)

// ErrorKind classifies terminal transfer failures.
// Kinds are string-based for debuggability and natural log/JSON output.
type ErrorKind string

const (
	// KindInitialization indicates the transfer engine was unavailable:
	// global startup failed, TLS capability is missing, or a per-transfer
	// handle could not be acquired.
	KindInitialization ErrorKind = "INITIALIZATION_ERROR"

	// KindOperationFailed indicates the transfer itself failed: a
	// transport-level error, a response read error, or a non-200 status.
	KindOperationFailed ErrorKind = "OPERATION_FAILED"

	// KindInternalFault indicates an unexpected fault was caught at the
	// orchestration boundary and converted rather than propagated.
	KindInternalFault ErrorKind = "INTERNAL_FAULT"
)

// Error is the typed failure carried by a transfer Outcome.
// Exactly one Error is produced per failed transfer; it wraps the
// underlying cause when one exists.
type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func newError(kind ErrorKind, cause error, format string, v ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, v...),
		cause:   cause,
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// IsKind reports whether err is (or wraps) a transfer Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind == kind
	}
	return false
}
