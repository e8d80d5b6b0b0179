package zenoh

import (
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/daleydeng/zenoh-go/internal/logging"
)

// logger is the package-level structured logger.
// Set ZENOH_LOG=debug|info|warn|error to control verbosity at runtime.
// Default is warn so production binaries are silent.
var logger = logging.New("ZENOH_LOG")

// SetLogger replaces the package logger. Call it before opening sessions;
// it is not synchronized with callbacks already running.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}

// safeCall runs fn and recovers any panic so a user callback never unwinds
// into an engine goroutine.
func safeCall(op string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic in callback",
				zap.String("op", op),
				zap.String("recover", fmt.Sprintf("%v", r)),
				zap.ByteString("stack", debug.Stack()))
		}
	}()
	fn()
}
