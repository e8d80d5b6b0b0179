package native

import "code.hybscloud.com/atomix"

// Closure is the engine-facing form of a callback: a trampoline the engine
// invokes with raw values zero or more times, followed by exactly one
// teardown when the engine releases it.
//
// Call may run concurrently from engine goroutines. Calling after Drop, or
// dropping twice, is an engine bug and panics.
type Closure[T any] struct {
	call    func(T)
	drop    func()
	dropped atomix.Bool
}

// NewClosure creates a closure from a trampoline and an optional teardown.
func NewClosure[T any](call func(T), drop func()) *Closure[T] {
	if call == nil {
		panic("zenoh: native closure requires a call function")
	}
	return &Closure[T]{call: call, drop: drop}
}

// Call invokes the trampoline with one raw value.
func (c *Closure[T]) Call(value T) {
	if c.dropped.Load() {
		panic("zenoh: native closure called after drop")
	}
	c.call(value)
}

// Drop runs the teardown. It must be called exactly once per closure, even
// when the closure was never called or the declaration that received it failed.
func (c *Closure[T]) Drop() {
	if !c.dropped.CompareAndSwap(false, true) {
		panic("zenoh: native closure dropped twice")
	}
	if c.drop != nil {
		c.drop()
	}
}

// Dropped reports whether Drop has run.
func (c *Closure[T]) Dropped() bool {
	return c.dropped.Load()
}
