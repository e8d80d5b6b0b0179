package zenoh

import (
	"runtime"

	"go.uber.org/zap"

	"github.com/daleydeng/zenoh-go/native"
)

// Publisher publishes on a fixed key expression
type Publisher struct {
	h       handle[native.Publisher]
	session *Session
	keyExpr string
}

func newPublisher(s *Session, raw native.Publisher, keyexpr string) *Publisher {
	engine := s.engine
	pub := &Publisher{
		h:       newHandle("publisher", raw, engine.UndeclarePublisher),
		session: s,
		keyExpr: keyexpr,
	}
	if pub.h.check() {
		runtime.SetFinalizer(pub, (*Publisher).Close)
	}
	return pub
}

// Check reports whether the publisher is declared
func (p *Publisher) Check() bool {
	return p.h.check()
}

// KeyExpr returns the key expression the publisher was declared on
func (p *Publisher) KeyExpr() KeyExprView {
	return KeyExprView{expr: p.keyExpr}
}

// Put publishes payload. A nil opts uses the engine defaults.
// Put panics once the publisher is closed.
func (p *Publisher) Put(payload []byte, opts *PublisherPutOptions) error {
	rc := p.session.engine.PublisherPut(p.h.loan(), payload, opts.toNative())
	logger.Debug("publisher put", zap.String("keyexpr", p.keyExpr), zap.Int("len", len(payload)), zap.Int("rc", int(rc)))
	return callResult(rc)
}

// Delete publishes a deletion of the publisher's key expression.
// Delete panics once the publisher is closed.
func (p *Publisher) Delete(opts *PublisherDeleteOptions) error {
	return callResult(p.session.engine.PublisherDelete(p.h.loan(), opts.toNative()))
}

// Close undeclares the publisher. Closing twice does nothing.
func (p *Publisher) Close() error {
	return callResult(p.h.drop())
}
