// Package local implements an in-process zenoh engine. Every session opened
// on one Engine shares its routing tables: a put on any session reaches the
// matching subscribers of all of them, and a get reaches their queryables.
//
// Callbacks run on one delivery goroutine per closure, in arrival order, and
// each closure is dropped exactly once after its last payload.
package local

import (
	"sort"
	"sync"

	"code.hybscloud.com/atomix"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/daleydeng/zenoh-go/internal/logging"
	"github.com/daleydeng/zenoh-go/keyexpr"
	"github.com/daleydeng/zenoh-go/native"
)

var defaultEngine = sync.OnceValue(func() *Engine { return New() })

// Default returns the engine shared by the whole program.
func Default() *Engine {
	return defaultEngine()
}

// Stats counts deliveries across all workers of an engine.
type Stats struct {
	Delivered uint32
	Dropped   uint32
}

type stats struct {
	delivered atomix.Uint32
	dropped   atomix.Uint32
}

// Engine is an in-process native.Engine. The zero value is not usable; call New.
type Engine struct {
	log           *zap.Logger
	queueCapacity int
	serial        atomix.Uint32
	stats         stats

	mu          sync.Mutex
	sessions    map[native.Session]*session
	keyexprs    map[native.KeyExpr]*declaredKeyExpr
	publishers  map[native.Publisher]*publisher
	subscribers map[native.Subscriber]*subscriber
	pulls       map[native.PullSubscriber]*pullSubscriber
	queryables  map[native.Queryable]*queryable
	deliveries  map[native.QueryID]*queryDelivery
}

var _ native.Engine = (*Engine)(nil)

type session struct {
	id       native.Session
	zid      native.ID
	whatami  native.WhatAmI
	config   *native.Config
	locators []string
}

type declaredKeyExpr struct {
	session native.Session
	expr    string
}

// New creates an engine with no sessions.
func New(opts ...Option) *Engine {
	e := &Engine{
		log:           logging.New("ZENOH_LOG").Named("local"),
		queueCapacity: defaultQueueCapacity,
		sessions:      make(map[native.Session]*session),
		keyexprs:      make(map[native.KeyExpr]*declaredKeyExpr),
		publishers:    make(map[native.Publisher]*publisher),
		subscribers:   make(map[native.Subscriber]*subscriber),
		pulls:         make(map[native.PullSubscriber]*pullSubscriber),
		queryables:    make(map[native.Queryable]*queryable),
		deliveries:    make(map[native.QueryID]*queryDelivery),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// next returns a fresh engine-wide id. Ids start at 1 so that zero stays the
// null handle of every kind.
func (e *Engine) next() uint32 {
	return e.serial.Add(1)
}

// Stats returns the delivery counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Delivered: e.stats.delivered.Load(),
		Dropped:   e.stats.dropped.Load(),
	}
}

// Open starts a session. It returns the null session if cfg does not
// validate or names a zid already in use.
func (e *Engine) Open(cfg *native.Config) native.Session {
	if cfg == nil {
		e.log.Warn("open without config")
		return 0
	}
	if err := cfg.Validate(); err != nil {
		e.log.Warn("open rejected config", zap.Error(err))
		return 0
	}

	zid := native.ID(uuid.New())
	if cfg.ID != "" {
		parsed, err := native.ParseID(cfg.ID)
		if err != nil {
			e.log.Warn("open rejected zid", zap.Error(err))
			return 0
		}
		zid = parsed
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, other := range e.sessions {
		if other.zid == zid {
			e.log.Warn("open rejected duplicate zid", zap.Stringer("zid", zid))
			return 0
		}
	}
	s := &session{
		id:       native.Session(e.next()),
		zid:      zid,
		whatami:  cfg.WhatAmI(),
		config:   cfg,
		locators: append([]string(nil), cfg.Listen.Endpoints...),
	}
	e.sessions[s.id] = s
	e.log.Debug("session opened", zap.Uint32("session", uint32(s.id)), zap.Stringer("zid", zid), zap.Stringer("mode", s.whatami))
	return s.id
}

// Close ends a session and undeclares every entity it still owns. Queries
// the session issued run until they complete or time out.
func (e *Engine) Close(id native.Session) native.ErrNo {
	var workers []interface{ close() }

	e.mu.Lock()
	if _, ok := e.sessions[id]; !ok {
		e.mu.Unlock()
		return native.ErrNoSessionClosed
	}
	delete(e.sessions, id)
	for k, ke := range e.keyexprs {
		if ke.session == id {
			delete(e.keyexprs, k)
		}
	}
	for k, p := range e.publishers {
		if p.session == id {
			delete(e.publishers, k)
		}
	}
	for k, sub := range e.subscribers {
		if sub.session == id {
			delete(e.subscribers, k)
			workers = append(workers, sub.worker)
		}
	}
	for k, sub := range e.pulls {
		if sub.session == id {
			delete(e.pulls, k)
			workers = append(workers, sub.worker)
		}
	}
	for k, q := range e.queryables {
		if q.session == id {
			delete(e.queryables, k)
			workers = append(workers, q.worker)
		}
	}
	e.mu.Unlock()

	for _, w := range workers {
		w.close()
	}
	e.log.Debug("session closed", zap.Uint32("session", uint32(id)), zap.Int("undeclared", len(workers)))
	return native.ErrNoSuccess
}

// Shutdown closes every open session.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	ids := make([]native.Session, 0, len(e.sessions))
	for id := range e.sessions {
		ids = append(ids, id)
	}
	e.mu.Unlock()
	for _, id := range ids {
		e.Close(id)
	}
}

func (e *Engine) lookupSession(id native.Session) (*session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[id]
	return s, ok
}

// InfoZid returns the zid of a session, or the zero id if it is not open.
func (e *Engine) InfoZid(id native.Session) native.ID {
	if s, ok := e.lookupSession(id); ok {
		return s.zid
	}
	return native.ID{}
}

// InfoRoutersZid reports the zids of the other sessions running as routers.
func (e *Engine) InfoRoutersZid(id native.Session, cb *native.Closure[native.ID]) native.ErrNo {
	return e.info(id, native.Router, "info routers", cb)
}

// InfoPeersZid reports the zids of the other sessions running as peers.
func (e *Engine) InfoPeersZid(id native.Session, cb *native.Closure[native.ID]) native.ErrNo {
	return e.info(id, native.Peer, "info peers", cb)
}

func (e *Engine) info(id native.Session, role native.WhatAmI, name string, cb *native.Closure[native.ID]) native.ErrNo {
	e.mu.Lock()
	if _, ok := e.sessions[id]; !ok {
		e.mu.Unlock()
		cb.Drop()
		return native.ErrNoSessionClosed
	}
	var others []*session
	for _, s := range e.sessions {
		if s.id != id && s.whatami&role != 0 {
			others = append(others, s)
		}
	}
	e.mu.Unlock()

	sort.Slice(others, func(i, j int) bool { return others[i].id < others[j].id })
	w := startWorker(e, name, cb, nil)
	for _, s := range others {
		w.push(s.zid, true)
	}
	w.close()
	return native.ErrNoSuccess
}

// DeclareKeyExpr interns expr on a session.
func (e *Engine) DeclareKeyExpr(id native.Session, expr string) native.KeyExpr {
	if err := keyexpr.Validate(expr); err != nil {
		e.log.Warn("declare keyexpr rejected", zap.Error(err))
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.sessions[id]; !ok {
		return 0
	}
	k := native.KeyExpr(e.next())
	e.keyexprs[k] = &declaredKeyExpr{session: id, expr: expr}
	return k
}

// UndeclareKeyExpr removes a key expression declared on the same session.
func (e *Engine) UndeclareKeyExpr(id native.Session, k native.KeyExpr) native.ErrNo {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.sessions[id]; !ok {
		return native.ErrNoSessionClosed
	}
	ke, ok := e.keyexprs[k]
	if !ok || ke.session != id {
		return native.ErrNoUnknownEntity
	}
	delete(e.keyexprs, k)
	return native.ErrNoSuccess
}
