// Package logging builds the zap loggers shared by the zenoh packages.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a console logger writing to stderr. The level is read from the
// environment variable envVar (debug, info, warn, error); it defaults to warn
// so production binaries stay quiet.
func New(envVar string) *zap.Logger {
	level := zapcore.WarnLevel
	if v := os.Getenv(envVar); v != "" {
		_ = level.UnmarshalText([]byte(v))
	}

	config := zap.NewDevelopmentEncoderConfig()
	config.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(config),
		zapcore.Lock(os.Stderr),
		level,
	)
	return zap.New(core)
}
