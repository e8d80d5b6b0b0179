package local

import (
	"go.uber.org/zap"
)

const defaultQueueCapacity = 1024

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the engine logger
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithQueueCapacity sets the ring size of every delivery worker. It is
// rounded up to a power of two. Samples published with
// CongestionControlDrop are dropped when a subscriber's ring is full.
func WithQueueCapacity(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.queueCapacity = roundPow2(n)
		}
	}
}

func roundPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
