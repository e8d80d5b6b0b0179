package zenoh

import (
	"go.uber.org/zap"

	"github.com/daleydeng/zenoh-go/native"
)

// takeHandler hands h over to the engine. It takes the callback and drop
// functions out of h and wraps them into a native closure whose trampoline
// converts each raw engine value before forwarding it.
//
// The returned closure belongs to whoever receives it. Every declare, get,
// info and scout call passes it on before it knows whether the call will
// succeed, so a failed call still tears it down exactly once.
func takeHandler[R, T any](op string, h Handler[T], convert func(R) T) *native.Closure[R] {
	if h == nil {
		panic("zenoh: nil handler passed to " + op)
	}
	call, drop, _ := h.ToCbDropHandler()
	if call == nil {
		panic("zenoh: handler passed to " + op + " has no callback")
	}
	return native.NewClosure(
		func(raw R) {
			v := convert(raw)
			safeCall(op, func() { call(v) })
		},
		func() {
			logger.Debug("closure dropped", zap.String("op", op))
			if drop != nil {
				safeCall(op, drop)
			}
		},
	)
}

func identity[T any](v T) T { return v }
