package zenoh

import (
	"errors"
	"fmt"
	"testing"

	"github.com/daleydeng/zenoh-go/native"
)

func TestError(t *testing.T) {
	err := NewError(ErrorCodeCreatePublisher, "Unable to create publisher")

	if err.Code() != ErrorCodeCreatePublisher {
		t.Errorf("Code() = %d, want %d", err.Code(), ErrorCodeCreatePublisher)
	}

	if err.Message() != "Unable to create publisher" {
		t.Errorf("Message() = %q, want %q", err.Message(), "Unable to create publisher")
	}

	if err.Error() != "Unable to create publisher" {
		t.Errorf("Error() = %q, want %q", err.Error(), "Unable to create publisher")
	}
}

func TestSentinelMessages(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{ErrOpenSession, "Unable to open session"},
		{ErrCreatePublisher, "Unable to create publisher"},
		{ErrCreateSubscriber, "Unable to create subscriber"},
		{ErrCreatePullSubscriber, "Unable to create pull subscriber"},
		{ErrCreateQueryable, "Unable to create queryable"},
		{ErrConfigFromFile, "Failed to create config from file"},
		{ErrConfigFromStr, "Failed to create config from string"},
		{ErrConfigClient, "Failed to create config from list of peers"},
		{ErrInvalidKeyExpr, "Invalid key expression"},
		{ErrConfigInsert, "Failed to insert config value"},
	}

	for _, tt := range tests {
		if tt.err.Error() != tt.want {
			t.Errorf("Error() = %q, want %q", tt.err.Error(), tt.want)
		}
	}
}

func TestErrorWithErrors(t *testing.T) {
	err := ErrConfigFromStr.withCause(errors.New("unexpected end of JSON input"))

	// errors.Is matches by error code (message and cause are ignored)
	if !errors.Is(err, ErrConfigFromStr) {
		t.Error("errors.Is should match sentinel ErrConfigFromStr")
	}

	if errors.Is(err, ErrConfigFromFile) {
		t.Error("errors.Is should not match Error with different code")
	}

	if err.Error() != "Failed to create config from string" {
		t.Errorf("Error() = %q, the cause must not leak into the message", err.Error())
	}

	if errors.Unwrap(err) == nil {
		t.Error("Unwrap should return the cause")
	}

	var target *Error
	if !errors.As(fmt.Errorf("outer: %w", err), &target) {
		t.Fatal("errors.As should work for *Error")
	}
	if target.Code() != ErrorCodeConfigFromStr {
		t.Errorf("Code() after errors.As = %d, want %d", target.Code(), ErrorCodeConfigFromStr)
	}
}

func TestErrorIsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", ErrCreateSubscriber)
	doubleWrapped := fmt.Errorf("double: %w", wrapped)

	if !errors.Is(doubleWrapped, ErrCreateSubscriber) {
		t.Error("errors.Is should find ErrCreateSubscriber through double-wrapped chain")
	}

	if errors.Is(doubleWrapped, ErrCreateQueryable) {
		t.Error("errors.Is should not match different error code in chain")
	}
}

func TestCode(t *testing.T) {
	tests := []struct {
		err  error
		want ErrNo
	}{
		{nil, native.ErrNoSuccess},
		{callResult(native.ErrNoSuccess), native.ErrNoSuccess},
		{callResult(ErrNoSessionClosed), ErrNoSessionClosed},
		{fmt.Errorf("put: %w", callResult(ErrNoInvalidKeyExpr)), ErrNoInvalidKeyExpr},
		{errors.New("plain"), ErrNoGeneric},
	}

	for _, tt := range tests {
		if got := Code(tt.err); got != tt.want {
			t.Errorf("Code(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestCallResultSuccessIsNil(t *testing.T) {
	if err := callResult(native.ErrNoSuccess); err != nil {
		t.Errorf("callResult(success) = %v, want nil", err)
	}
}

func TestErrorCodeConstants(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected int32
	}{
		{ErrorCodeOpenSession, -1},
		{ErrorCodeCreatePublisher, -2},
		{ErrorCodeCreateSubscriber, -3},
		{ErrorCodeCreatePullSubscriber, -4},
		{ErrorCodeCreateQueryable, -5},
		{ErrorCodeConfigFromFile, -6},
		{ErrorCodeConfigFromStr, -7},
		{ErrorCodeConfigClient, -8},
		{ErrorCodeInvalidKeyExpr, -9},
		{ErrorCodeConfigInsert, -10},
	}

	for _, tt := range tests {
		if int32(tt.code) != tt.expected {
			t.Errorf("ErrorCode value mismatch: got %d, want %d", tt.code, tt.expected)
		}
	}
}
