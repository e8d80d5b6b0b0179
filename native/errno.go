package native

import "fmt"

// ErrNo is the status code returned by engine entry points. Zero is success;
// every other value is an engine error.
type ErrNo int8

const (
	// ErrNoSuccess indicates the call completed
	ErrNoSuccess ErrNo = 0

	// ErrNoGeneric is an unspecified engine failure
	ErrNoGeneric ErrNo = -1

	// ErrNoNullHandle indicates a null or released handle was passed in
	ErrNoNullHandle ErrNo = -2

	// ErrNoSessionClosed indicates the session is not open
	ErrNoSessionClosed ErrNo = -3

	// ErrNoInvalidKeyExpr indicates the key expression was rejected
	ErrNoInvalidKeyExpr ErrNo = -4

	// ErrNoUnknownEntity indicates the handle does not name a live entity
	ErrNoUnknownEntity ErrNo = -5

	// ErrNoQueryClosed indicates a reply to a query that has finished
	ErrNoQueryClosed ErrNo = -6

	// ErrNoInvalidArgument indicates an option or argument was rejected
	ErrNoInvalidArgument ErrNo = -7
)

// Error implements the error interface
func (e ErrNo) Error() string {
	return fmt.Sprintf("zenoh: native call failed (errno %d)", int8(e))
}

// Ok reports whether the code is ErrNoSuccess.
func (e ErrNo) Ok() bool {
	return e == ErrNoSuccess
}
