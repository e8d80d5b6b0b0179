package zenoh

import (
	"runtime"

	"github.com/daleydeng/zenoh-go/native"
)

// Subscriber receives the samples published on a key expression. Delivery
// goes through the handler given at declaration; the subscriber itself only
// controls the lifetime. Keep a reference to it for as long as samples are
// wanted: once it is closed or collected, the engine stops calling the
// handler and runs its drop.
type Subscriber struct {
	h       handle[native.Subscriber]
	session *Session
	keyExpr string
}

func newSubscriber(s *Session, raw native.Subscriber, keyexpr string) *Subscriber {
	sub := &Subscriber{
		h:       newHandle("subscriber", raw, s.engine.UndeclareSubscriber),
		session: s,
		keyExpr: keyexpr,
	}
	if sub.h.check() {
		runtime.SetFinalizer(sub, (*Subscriber).Close)
	}
	return sub
}

// Check reports whether the subscriber is declared
func (s *Subscriber) Check() bool {
	return s.h.check()
}

// KeyExpr returns the key expression the subscriber was declared on
func (s *Subscriber) KeyExpr() KeyExprView {
	return KeyExprView{expr: s.keyExpr}
}

// Close undeclares the subscriber. The handler's drop runs after the last
// sample. Closing twice does nothing.
func (s *Subscriber) Close() error {
	return callResult(s.h.drop())
}

// PullSubscriber buffers the samples published on a key expression until
// Pull hands them to the handler.
type PullSubscriber struct {
	h       handle[native.PullSubscriber]
	session *Session
	keyExpr string
}

func newPullSubscriber(s *Session, raw native.PullSubscriber, keyexpr string) *PullSubscriber {
	sub := &PullSubscriber{
		h:       newHandle("pull subscriber", raw, s.engine.UndeclarePullSubscriber),
		session: s,
		keyExpr: keyexpr,
	}
	if sub.h.check() {
		runtime.SetFinalizer(sub, (*PullSubscriber).Close)
	}
	return sub
}

// Check reports whether the pull subscriber is declared
func (s *PullSubscriber) Check() bool {
	return s.h.check()
}

// KeyExpr returns the key expression the pull subscriber was declared on
func (s *PullSubscriber) KeyExpr() KeyExprView {
	return KeyExprView{expr: s.keyExpr}
}

// Pull delivers the samples received since the previous pull.
// Pull panics once the subscriber is closed.
func (s *PullSubscriber) Pull() error {
	return callResult(s.session.engine.Pull(s.h.loan()))
}

// Close undeclares the pull subscriber. Samples not yet pulled are
// discarded. Closing twice does nothing.
func (s *PullSubscriber) Close() error {
	return callResult(s.h.drop())
}
