package zenoh

import (
	"runtime"

	"go.uber.org/zap"

	"github.com/daleydeng/zenoh-go/native"
)

// Session is an open connection to the network and the factory of every
// declared entity. Entities keep their session reachable, so a session is
// never finalized while one of them is still in use.
//
// A Session is not safe for concurrent declares unless the engine says
// otherwise; the in-process engine is.
type Session struct {
	h      handle[native.Session]
	engine native.Engine
	config *native.Config
}

// Open consumes cfg and opens a session from it. On failure the error is
// ErrOpenSession and no session is returned.
func Open(cfg *Config) (*Session, error) {
	engine := cfg.engine
	raw := cfg.h.take()
	if raw == nil || engine == nil {
		logger.Warn("open session without a valid config")
		return nil, ErrOpenSession
	}
	retained := raw.Clone()

	s := &Session{engine: engine, config: retained}
	s.h = newHandle("session", engine.Open(raw), engine.Close)
	if !s.h.check() {
		logger.Warn("engine refused to open session", zap.String("mode", retained.Mode))
		return nil, ErrOpenSession
	}
	runtime.SetFinalizer(s, (*Session).Close)

	logger.Debug("session opened",
		zap.Stringer("zid", engine.InfoZid(s.h.loan())),
		zap.String("mode", retained.Mode))
	return s, nil
}

// Check reports whether the session is open.
func (s *Session) Check() bool {
	return s.h.check()
}

// Close closes the session. Entities still declared on it are undeclared by
// the engine; closing them afterwards reports ErrNoUnknownEntity. Closing
// twice does nothing.
func (s *Session) Close() error {
	rc := s.h.drop()
	logger.Debug("session closed", zap.Int("rc", int(rc)))
	return callResult(rc)
}

// Config returns a copy of the configuration the session was opened with.
func (s *Session) Config() *Config {
	c := newConfig(s.config.Clone())
	c.engine = s.engine
	return c
}

// CreateScoutingConfig derives a scouting configuration from the session's
// configuration.
func (s *Session) CreateScoutingConfig() *ScoutingConfig {
	return newScoutingConfig(native.ScoutingConfigFrom(s.config), s.engine)
}

// InfoZid returns the session's own id, or the zero id if it is closed.
func (s *Session) InfoZid() ID {
	if !s.h.check() {
		return ID{}
	}
	return s.engine.InfoZid(s.h.loan())
}

// InfoRoutersZid reports the ids of the routers the session is connected
// to. The handler's drop signals that every id has been reported.
func (s *Session) InfoRoutersZid(handler Handler[ID]) error {
	cb := takeHandler("info routers", handler, identity[ID])
	if !s.h.check() {
		cb.Drop()
		return callResult(native.ErrNoSessionClosed)
	}
	return callResult(s.engine.InfoRoutersZid(s.h.loan(), cb))
}

// InfoPeersZid reports the ids of the peers the session is connected to.
// The handler's drop signals that every id has been reported.
func (s *Session) InfoPeersZid(handler Handler[ID]) error {
	cb := takeHandler("info peers", handler, identity[ID])
	if !s.h.check() {
		cb.Drop()
		return callResult(native.ErrNoSessionClosed)
	}
	return callResult(s.engine.InfoPeersZid(s.h.loan(), cb))
}

// DeclareKeyExpr declares keyexpr on the session. On a closed session the
// result is invalid: its Check reports false.
func (s *Session) DeclareKeyExpr(keyexpr KeyExprView) *KeyExpr {
	if !s.h.check() {
		return &KeyExpr{session: s, expr: keyexpr.expr}
	}
	return newKeyExpr(s, s.engine.DeclareKeyExpr(s.h.loan(), keyexpr.expr), keyexpr.expr)
}

// UndeclareKeyExpr consumes k and undeclares it. A key expression declared
// on another session is left untouched and ErrNoUnknownEntity is returned.
func (s *Session) UndeclareKeyExpr(k *KeyExpr) error {
	if k.h.check() && k.session != s {
		return callResult(native.ErrNoUnknownEntity)
	}
	raw := k.h.take()
	runtime.SetFinalizer(k, nil)
	if !s.h.check() {
		return callResult(native.ErrNoSessionClosed)
	}
	if !raw.Check() {
		return callResult(native.ErrNoNullHandle)
	}
	return callResult(s.engine.UndeclareKeyExpr(s.h.loan(), raw))
}

// Put publishes payload on keyexpr. A nil opts uses the engine defaults.
func (s *Session) Put(keyexpr KeyExprView, payload []byte, opts *PutOptions) error {
	if !s.h.check() {
		return callResult(native.ErrNoSessionClosed)
	}
	return callResult(s.engine.Put(s.h.loan(), keyexpr.expr, payload, opts.toNative()))
}

// Delete publishes a deletion of keyexpr. A nil opts uses the engine defaults.
func (s *Session) Delete(keyexpr KeyExprView, opts *DeleteOptions) error {
	if !s.h.check() {
		return callResult(native.ErrNoSessionClosed)
	}
	return callResult(s.engine.Delete(s.h.loan(), keyexpr.expr, opts.toNative()))
}

// Get queries the queryables matching keyexpr. Replies reach handler
// asynchronously; its drop runs once the query is over. The handler is
// consumed even when Get fails.
func (s *Session) Get(keyexpr KeyExprView, parameters string, handler Handler[Reply], opts *GetOptions) error {
	cb := takeHandler("get", handler, replyFromNative)
	if !s.h.check() {
		cb.Drop()
		return callResult(native.ErrNoSessionClosed)
	}
	return callResult(s.engine.Get(s.h.loan(), keyexpr.expr, parameters, cb, opts.toNative()))
}

// DeclarePublisher declares a publisher on keyexpr.
func (s *Session) DeclarePublisher(keyexpr KeyExprView, opts *PublisherOptions) (*Publisher, error) {
	if !s.h.check() {
		return nil, ErrCreatePublisher
	}
	raw := s.engine.DeclarePublisher(s.h.loan(), keyexpr.expr, opts.toNative())
	pub := newPublisher(s, raw, keyexpr.expr)
	if !pub.h.check() {
		logger.Warn("publisher declaration failed", zap.String("keyexpr", keyexpr.expr))
		return nil, ErrCreatePublisher
	}
	logger.Debug("publisher declared", zap.String("keyexpr", keyexpr.expr))
	return pub, nil
}

// DeclareSubscriber declares a subscriber on keyexpr. Samples reach handler
// on engine goroutines, in arrival order. The handler is consumed even when
// the declaration fails; its drop then runs right away.
func (s *Session) DeclareSubscriber(keyexpr KeyExprView, handler Handler[Sample], opts *SubscriberOptions) (*Subscriber, error) {
	cb := takeHandler("subscriber", handler, sampleFromNative)
	if !s.h.check() {
		cb.Drop()
		return nil, ErrCreateSubscriber
	}
	raw := s.engine.DeclareSubscriber(s.h.loan(), keyexpr.expr, cb, opts.toNative())
	sub := newSubscriber(s, raw, keyexpr.expr)
	if !sub.h.check() {
		logger.Warn("subscriber declaration failed", zap.String("keyexpr", keyexpr.expr))
		return nil, ErrCreateSubscriber
	}
	logger.Debug("subscriber declared", zap.String("keyexpr", keyexpr.expr))
	return sub, nil
}

// DeclarePullSubscriber declares a subscriber that buffers samples until
// Pull is called. The handler is consumed even when the declaration fails.
func (s *Session) DeclarePullSubscriber(keyexpr KeyExprView, handler Handler[Sample], opts *PullSubscriberOptions) (*PullSubscriber, error) {
	cb := takeHandler("pull subscriber", handler, sampleFromNative)
	if !s.h.check() {
		cb.Drop()
		return nil, ErrCreatePullSubscriber
	}
	raw := s.engine.DeclarePullSubscriber(s.h.loan(), keyexpr.expr, cb, opts.toNative())
	sub := newPullSubscriber(s, raw, keyexpr.expr)
	if !sub.h.check() {
		logger.Warn("pull subscriber declaration failed", zap.String("keyexpr", keyexpr.expr))
		return nil, ErrCreatePullSubscriber
	}
	logger.Debug("pull subscriber declared", zap.String("keyexpr", keyexpr.expr))
	return sub, nil
}

// DeclareQueryable declares a queryable answering gets on keyexpr. The
// handler is consumed even when the declaration fails.
func (s *Session) DeclareQueryable(keyexpr KeyExprView, handler Handler[Query], opts *QueryableOptions) (*Queryable, error) {
	cb := takeHandler("queryable", handler, queryConverter(s.engine))
	if !s.h.check() {
		cb.Drop()
		return nil, ErrCreateQueryable
	}
	raw := s.engine.DeclareQueryable(s.h.loan(), keyexpr.expr, cb, opts.toNative())
	q := newQueryable(s, raw, keyexpr.expr)
	if !q.h.check() {
		logger.Warn("queryable declaration failed", zap.String("keyexpr", keyexpr.expr))
		return nil, ErrCreateQueryable
	}
	logger.Debug("queryable declared", zap.String("keyexpr", keyexpr.expr))
	return q, nil
}
