package zenoh

import (
	"fmt"

	"github.com/daleydeng/zenoh-go/native"
)

type handleState uint8

const (
	// stateInvalid is the zero state: construction failed or never happened
	stateInvalid handleState = iota
	stateValid
	stateMoved
	stateReleased
)

func (s handleState) String() string {
	switch s {
	case stateValid:
		return "valid"
	case stateMoved:
		return "moved"
	case stateReleased:
		return "released"
	}
	return "invalid"
}

// handle owns exactly one engine resource of kind T. The zero value of T is
// the null resource: a handle built from it starts invalid and is never
// released.
//
// A handle has a single owner. It is not safe for concurrent use; the
// entity wrapping it decides which goroutine may drop it.
type handle[T comparable] struct {
	raw     T
	state   handleState
	kind    string
	release func(T) native.ErrNo
}

func newHandle[T comparable](kind string, raw T, release func(T) native.ErrNo) handle[T] {
	h := handle[T]{raw: raw, kind: kind, release: release}
	var null T
	if raw != null {
		h.state = stateValid
	}
	return h
}

// check reports whether the handle owns a live resource.
func (h *handle[T]) check() bool {
	return h.state == stateValid
}

// take moves the resource out. The handle is left moved-from and is never
// released. Taking an invalid handle yields the null resource.
func (h *handle[T]) take() T {
	if h.state == stateMoved || h.state == stateReleased {
		panic(fmt.Sprintf("zenoh: take on %s %s handle", h.state, h.kind))
	}
	raw := h.raw
	var null T
	h.raw = null
	h.state = stateMoved
	return raw
}

// loan returns the resource without affecting ownership.
func (h *handle[T]) loan() T {
	if h.state != stateValid {
		panic(fmt.Sprintf("zenoh: loan of %s %s handle", h.state, h.kind))
	}
	return h.raw
}

// drop releases the resource if the handle still owns it. Dropping a
// moved-from, invalid or already released handle does nothing.
func (h *handle[T]) drop() native.ErrNo {
	if h.state != stateValid {
		return native.ErrNoSuccess
	}
	raw := h.raw
	var null T
	h.raw = null
	h.state = stateReleased
	if h.release == nil {
		return native.ErrNoSuccess
	}
	return h.release(raw)
}
