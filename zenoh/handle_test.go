package zenoh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daleydeng/zenoh-go/native"
)

type releaseCounter struct {
	released []uint32
}

func (r *releaseCounter) release(raw uint32) native.ErrNo {
	r.released = append(r.released, raw)
	return native.ErrNoSuccess
}

func TestHandleValidReleasesOnce(t *testing.T) {
	var rc releaseCounter
	h := newHandle("test", uint32(7), rc.release)
	require.True(t, h.check())

	assert.Equal(t, native.ErrNoSuccess, h.drop())
	assert.False(t, h.check())
	assert.Equal(t, native.ErrNoSuccess, h.drop())
	assert.Equal(t, []uint32{7}, rc.released)
}

func TestHandleInvalidIsNeverReleased(t *testing.T) {
	var rc releaseCounter
	h := newHandle("test", uint32(0), rc.release)
	assert.False(t, h.check())

	h.drop()
	assert.Empty(t, rc.released)
}

func TestHandleTakeLeavesMovedFrom(t *testing.T) {
	var rc releaseCounter
	h := newHandle("test", uint32(7), rc.release)

	raw := h.take()
	assert.Equal(t, uint32(7), raw)
	assert.False(t, h.check())

	// The new owner releases; the moved-from handle must not.
	h.drop()
	assert.Empty(t, rc.released)
}

func TestHandleTakeInvalidYieldsNull(t *testing.T) {
	h := newHandle[uint32]("test", 0, nil)
	assert.Equal(t, uint32(0), h.take())
	assert.False(t, h.check())
}

func TestHandleTakeTwicePanics(t *testing.T) {
	h := newHandle[uint32]("test", 7, nil)
	h.take()
	assert.Panics(t, func() { h.take() })
}

func TestHandleTakeAfterDropPanics(t *testing.T) {
	h := newHandle[uint32]("test", 7, nil)
	h.drop()
	assert.Panics(t, func() { h.take() })
}

func TestHandleLoan(t *testing.T) {
	h := newHandle[uint32]("test", 7, nil)
	assert.Equal(t, uint32(7), h.loan())
	assert.True(t, h.check(), "loan must not affect ownership")

	h.drop()
	assert.PanicsWithValue(t, "zenoh: loan of released test handle", func() { h.loan() })

	var invalid handle[uint32]
	assert.Panics(t, func() { invalid.loan() })
}

func TestHandleStateString(t *testing.T) {
	for state, want := range map[handleState]string{
		stateInvalid:  "invalid",
		stateValid:    "valid",
		stateMoved:    "moved",
		stateReleased: "released",
	} {
		assert.Equal(t, want, state.String())
	}
}
