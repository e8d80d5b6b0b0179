package zenoh

import (
	"errors"

	"github.com/daleydeng/zenoh-go/native"
)

// ErrorCode identifies the operation whose construction failed
type ErrorCode int32

const (
	// ErrorCodeOpenSession indicates the engine refused to open a session
	ErrorCodeOpenSession ErrorCode = -1

	// ErrorCodeCreatePublisher indicates publisher declaration failed
	ErrorCodeCreatePublisher ErrorCode = -2

	// ErrorCodeCreateSubscriber indicates subscriber declaration failed
	ErrorCodeCreateSubscriber ErrorCode = -3

	// ErrorCodeCreatePullSubscriber indicates pull subscriber declaration failed
	ErrorCodeCreatePullSubscriber ErrorCode = -4

	// ErrorCodeCreateQueryable indicates queryable declaration failed
	ErrorCodeCreateQueryable ErrorCode = -5

	// ErrorCodeConfigFromFile indicates a config file could not be loaded
	ErrorCodeConfigFromFile ErrorCode = -6

	// ErrorCodeConfigFromStr indicates a config string could not be parsed
	ErrorCodeConfigFromStr ErrorCode = -7

	// ErrorCodeConfigClient indicates a client config could not be built from peers
	ErrorCodeConfigClient ErrorCode = -8

	// ErrorCodeInvalidKeyExpr indicates a key expression was rejected
	ErrorCodeInvalidKeyExpr ErrorCode = -9

	// ErrorCodeConfigInsert indicates a config path could not be set
	ErrorCodeConfigInsert ErrorCode = -10
)

// Error is a construction failure: an open, declare or parse produced no
// usable handle. Error() returns the fixed message of the failed operation.
type Error struct {
	code  ErrorCode
	msg   string
	cause error
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.msg
}

// Code returns the error code
func (e *Error) Code() ErrorCode {
	return e.code
}

// Message returns the fixed message naming the failed operation
func (e *Error) Message() string {
	return e.msg
}

// Unwrap returns the parse or validation failure behind the error, if any
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same code, so sentinels
// match through wrapping with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if ok {
		return e.code == t.code
	}
	return false
}

// NewError creates a new Error with the given code and message
func NewError(code ErrorCode, msg string) *Error {
	return &Error{code: code, msg: msg}
}

func (e *Error) withCause(cause error) *Error {
	return &Error{code: e.code, msg: e.msg, cause: cause}
}

// Sentinel errors, one per construction failure
var (
	ErrOpenSession          = NewError(ErrorCodeOpenSession, "Unable to open session")
	ErrCreatePublisher      = NewError(ErrorCodeCreatePublisher, "Unable to create publisher")
	ErrCreateSubscriber     = NewError(ErrorCodeCreateSubscriber, "Unable to create subscriber")
	ErrCreatePullSubscriber = NewError(ErrorCodeCreatePullSubscriber, "Unable to create pull subscriber")
	ErrCreateQueryable      = NewError(ErrorCodeCreateQueryable, "Unable to create queryable")
	ErrConfigFromFile       = NewError(ErrorCodeConfigFromFile, "Failed to create config from file")
	ErrConfigFromStr        = NewError(ErrorCodeConfigFromStr, "Failed to create config from string")
	ErrConfigClient         = NewError(ErrorCodeConfigClient, "Failed to create config from list of peers")
	ErrInvalidKeyExpr       = NewError(ErrorCodeInvalidKeyExpr, "Invalid key expression")
	ErrConfigInsert         = NewError(ErrorCodeConfigInsert, "Failed to insert config value")
)

// ErrNo is the status code of a put, delete, get, pull, reply, info or scout
// call. A failed call returns its ErrNo as the error.
type ErrNo = native.ErrNo

// Call failure codes
const (
	ErrNoGeneric         = native.ErrNoGeneric
	ErrNoNullHandle      = native.ErrNoNullHandle
	ErrNoSessionClosed   = native.ErrNoSessionClosed
	ErrNoInvalidKeyExpr  = native.ErrNoInvalidKeyExpr
	ErrNoUnknownEntity   = native.ErrNoUnknownEntity
	ErrNoQueryClosed     = native.ErrNoQueryClosed
	ErrNoInvalidArgument = native.ErrNoInvalidArgument
)

// Code returns the ErrNo carried by err: zero for nil, ErrNoGeneric for an
// error that carries no code.
func Code(err error) ErrNo {
	if err == nil {
		return native.ErrNoSuccess
	}
	var code ErrNo
	if errors.As(err, &code) {
		return code
	}
	return native.ErrNoGeneric
}

// callResult turns an engine status into the error returned to callers.
func callResult(rc native.ErrNo) error {
	if rc == native.ErrNoSuccess {
		return nil
	}
	return rc
}
