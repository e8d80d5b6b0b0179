package zenoh

import "sync"

// Handler provides a unified interface for callback and channel-based delivery.
// Implementations can use direct callbacks (Closure) or channels (FifoChannel, RingChannel).
//
// A handler is single-use: the session takes it when it is handed to a
// declare, get, info or scout call, and handing it over a second time panics.
type Handler[T any] interface {
	// ToCbDropHandler returns the callback function, optional drop function, and receive channel.
	// For callback-based handlers, the channel is nil.
	// For channel-based handlers, the callback sends to the channel.
	ToCbDropHandler() (callback func(T), drop func(), receiver <-chan T)
}

// Closure wraps a direct callback function plus an optional teardown.
// The teardown runs exactly once, after the last callback, when the engine
// releases the closure.
type Closure[T any] struct {
	call  func(T)
	drop  func()
	taken bool
}

// ToCbDropHandler hands the callback and drop functions over with no channel.
func (c *Closure[T]) ToCbDropHandler() (func(T), func(), <-chan T) {
	if c.taken {
		panic("zenoh: closure handed off twice")
	}
	c.taken = true
	call, drop := c.call, c.drop
	c.call, c.drop = nil, nil
	return call, drop, nil
}

// Check reports whether the closure still holds its callback.
func (c *Closure[T]) Check() bool {
	return !c.taken
}

// NewClosure creates a callback-based handler. call must not be nil.
func NewClosure[T any](call func(T), drop func()) *Closure[T] {
	if call == nil {
		panic("zenoh: closure requires a callback")
	}
	return &Closure[T]{call: call, drop: drop}
}

// FifoChannel delivers values to a buffered channel.
// When the channel is full, the engine worker blocks until space is available.
type FifoChannel[T any] struct {
	channel chan T
	taken   bool
}

// ToCbDropHandler returns a callback that sends to the channel. The channel
// is closed on drop.
func (f *FifoChannel[T]) ToCbDropHandler() (func(T), func(), <-chan T) {
	if f.taken {
		panic("zenoh: fifo channel handed off twice")
	}
	f.taken = true
	callback := func(msg T) {
		f.channel <- msg
	}
	drop := func() {
		close(f.channel)
	}
	return callback, drop, f.channel
}

// Receiver returns the receiving end of the channel.
func (f *FifoChannel[T]) Receiver() <-chan T {
	return f.channel
}

// NewFifoChannel creates a channel-based handler with the specified buffer size.
// A buffer size of 0 creates an unbuffered channel (synchronous).
func NewFifoChannel[T any](bufferSize int) *FifoChannel[T] {
	return &FifoChannel[T]{
		channel: make(chan T, bufferSize),
	}
}

// RingChannel delivers values to a channel with ring buffer semantics.
// When the channel is full, the oldest value is dropped to make room for the new one.
type RingChannel[T any] struct {
	channel chan T
	mu      sync.Mutex
	taken   bool
}

// ToCbDropHandler returns a callback that sends to the channel with ring buffer behavior.
func (r *RingChannel[T]) ToCbDropHandler() (func(T), func(), <-chan T) {
	if r.taken {
		panic("zenoh: ring channel handed off twice")
	}
	r.taken = true
	callback := func(msg T) {
		r.mu.Lock()
		defer r.mu.Unlock()
		for {
			select {
			case r.channel <- msg:
				return
			default:
			}
			// Channel full - drop oldest and retry. The receiver may have
			// drained it meanwhile, so the receive must not block.
			select {
			case <-r.channel:
			default:
			}
		}
	}
	drop := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		close(r.channel)
	}
	return callback, drop, r.channel
}

// Receiver returns the receiving end of the channel.
func (r *RingChannel[T]) Receiver() <-chan T {
	return r.channel
}

// NewRingChannel creates a ring buffer channel handler with the specified capacity.
// The capacity must be greater than 0.
func NewRingChannel[T any](capacity int) *RingChannel[T] {
	if capacity <= 0 {
		panic("ring channel capacity must be > 0")
	}
	return &RingChannel[T]{
		channel: make(chan T, capacity),
	}
}
