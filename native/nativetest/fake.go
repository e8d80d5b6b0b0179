// Package nativetest provides an instrumented fake native.Engine for tests.
//
// The fake counts every release per resource kind, records publications and
// queries, can be scripted to fail, and delivers payloads to the closures it
// holds from several goroutines at once. Like a real engine it owns every
// closure it receives: a failed declare drops the closure right away.
package nativetest

import (
	"sync"

	"github.com/daleydeng/zenoh-go/native"
)

// Kind names a resource kind for release counting.
type Kind string

const (
	KindSession        Kind = "session"
	KindKeyExpr        Kind = "keyexpr"
	KindPublisher      Kind = "publisher"
	KindSubscriber     Kind = "subscriber"
	KindPullSubscriber Kind = "pull subscriber"
	KindQueryable      Kind = "queryable"
)

// PutCall records one put or delete.
type PutCall struct {
	Session   native.Session
	Publisher native.Publisher
	KeyExpr   string
	Payload   []byte
	Delete    bool
	// Options is the options pointer as received, nil when none was given.
	Options any
}

// GetCall records one get.
type GetCall struct {
	Session    native.Session
	KeyExpr    string
	Parameters string
	Options    *native.GetOptions
}

// Engine is the fake. Its zero value is not usable; call New.
type Engine struct {
	// FailOpen makes Open return the null session.
	FailOpen bool
	// FailDeclare makes declarations of the listed kinds return null handles.
	FailDeclare map[Kind]bool
	// CallResult is returned by put, delete, get, pull, info and scout calls.
	CallResult native.ErrNo
	// Replies are delivered to every get, then the reply closure is dropped.
	Replies []native.Reply
	// Peers and Routers are reported by the info calls.
	Peers   []native.ID
	Routers []native.ID
	// Hellos are reported by Scout.
	Hellos []native.Hello

	mu        sync.Mutex
	serial    uint32
	releases  map[Kind]int
	puts      []PutCall
	gets      []GetCall
	pulls     int
	sessions  map[native.Session]bool
	declared  map[Kind][]uint32
	owned     map[uint32]*holder
	publisher map[native.Publisher]publisherInfo
	async     sync.WaitGroup
}

type publisherInfo struct {
	session native.Session
	expr    string
}

var _ native.Engine = (*Engine)(nil)

// New returns a fake engine that accepts everything.
func New() *Engine {
	return &Engine{
		FailDeclare: make(map[Kind]bool),
		releases:    make(map[Kind]int),
		sessions:    make(map[native.Session]bool),
		declared:    make(map[Kind][]uint32),
		owned:       make(map[uint32]*holder),
		publisher:   make(map[native.Publisher]publisherInfo),
	}
}

// holder guards one closure: payload calls share the lock, the drop takes it
// exclusively, so the drop waits for calls in flight and no call follows it.
type holder struct {
	mu      sync.RWMutex
	dropped bool
	call    func(any)
	drop    func()
}

func hold[T any](cb *native.Closure[T]) *holder {
	return &holder{
		call: func(v any) { cb.Call(v.(T)) },
		drop: cb.Drop,
	}
}

func (h *holder) deliver(v any) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.dropped {
		return false
	}
	h.call(v)
	return true
}

func (h *holder) release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.dropped {
		return
	}
	h.dropped = true
	h.drop()
}

func (e *Engine) next() uint32 {
	e.serial++
	return e.serial
}

// Releases returns how many resources of kind have been released.
func (e *Engine) Releases(kind Kind) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.releases[kind]
}

// Declared returns the handles successfully declared for kind, in order.
func (e *Engine) Declared(kind Kind) []uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]uint32(nil), e.declared[kind]...)
}

// Puts returns the recorded puts and deletes.
func (e *Engine) Puts() []PutCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]PutCall(nil), e.puts...)
}

// Gets returns the recorded gets.
func (e *Engine) Gets() []GetCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]GetCall(nil), e.gets...)
}

// Pulls returns how many times Pull was called.
func (e *Engine) Pulls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pulls
}

// Wait blocks until every asynchronous get, info and scout delivery is done.
func (e *Engine) Wait() {
	e.async.Wait()
}

// Deliver hands values to the closure held for handle, spreading them over
// workers goroutines, and returns once all of them ran. It returns how many
// values reached the closure; none do after it was dropped.
func (e *Engine) Deliver(handle uint32, workers int, values ...any) int {
	e.mu.Lock()
	h, ok := e.owned[handle]
	e.mu.Unlock()
	if !ok {
		return 0
	}
	if workers < 1 {
		workers = 1
	}
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		delivered int
	)
	feed := make(chan any)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for v := range feed {
				if h.deliver(v) {
					mu.Lock()
					delivered++
					mu.Unlock()
				}
			}
		}()
	}
	for _, v := range values {
		feed <- v
	}
	close(feed)
	wg.Wait()
	return delivered
}

func (e *Engine) declare(kind Kind, s native.Session, h *holder) uint32 {
	e.mu.Lock()
	if e.FailDeclare[kind] || !e.sessions[s] {
		e.mu.Unlock()
		if h != nil {
			h.release()
		}
		return 0
	}
	id := e.next()
	e.declared[kind] = append(e.declared[kind], id)
	if h != nil {
		e.owned[id] = h
	}
	e.mu.Unlock()
	return id
}

func (e *Engine) undeclare(kind Kind, id uint32) native.ErrNo {
	e.mu.Lock()
	h := e.owned[id]
	delete(e.owned, id)
	e.releases[kind]++
	e.mu.Unlock()
	if h != nil {
		h.release()
	}
	return native.ErrNoSuccess
}

func (e *Engine) later(h *holder, values []any) {
	e.async.Add(1)
	go func() {
		defer e.async.Done()
		for _, v := range values {
			h.deliver(v)
		}
		h.release()
	}()
}

// The methods below implement native.Engine.

func (e *Engine) Open(cfg *native.Config) native.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.FailOpen || cfg == nil {
		return 0
	}
	s := native.Session(e.next())
	e.sessions[s] = true
	return s
}

func (e *Engine) Close(s native.Session) native.ErrNo {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.sessions, s)
	e.releases[KindSession]++
	return native.ErrNoSuccess
}

func (e *Engine) InfoZid(s native.Session) native.ID {
	var id native.ID
	id[len(id)-1] = byte(s)
	return id
}

func (e *Engine) InfoRoutersZid(_ native.Session, cb *native.Closure[native.ID]) native.ErrNo {
	return e.info(e.Routers, cb)
}

func (e *Engine) InfoPeersZid(_ native.Session, cb *native.Closure[native.ID]) native.ErrNo {
	return e.info(e.Peers, cb)
}

func (e *Engine) info(ids []native.ID, cb *native.Closure[native.ID]) native.ErrNo {
	h := hold(cb)
	if e.CallResult != native.ErrNoSuccess {
		h.release()
		return e.CallResult
	}
	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	e.later(h, values)
	return native.ErrNoSuccess
}

func (e *Engine) DeclareKeyExpr(s native.Session, _ string) native.KeyExpr {
	return native.KeyExpr(e.declare(KindKeyExpr, s, nil))
}

func (e *Engine) UndeclareKeyExpr(_ native.Session, k native.KeyExpr) native.ErrNo {
	return e.undeclare(KindKeyExpr, uint32(k))
}

func (e *Engine) Put(s native.Session, expr string, payload []byte, opts *native.PutOptions) native.ErrNo {
	call := PutCall{Session: s, KeyExpr: expr, Payload: append([]byte(nil), payload...)}
	if opts != nil {
		call.Options = opts
	}
	return e.record(call)
}

func (e *Engine) Delete(s native.Session, expr string, opts *native.DeleteOptions) native.ErrNo {
	call := PutCall{Session: s, KeyExpr: expr, Delete: true}
	if opts != nil {
		call.Options = opts
	}
	return e.record(call)
}

func (e *Engine) record(call PutCall) native.ErrNo {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.puts = append(e.puts, call)
	return e.CallResult
}

func (e *Engine) Get(s native.Session, expr, parameters string, cb *native.Closure[native.Reply], opts *native.GetOptions) native.ErrNo {
	h := hold(cb)
	e.mu.Lock()
	e.gets = append(e.gets, GetCall{Session: s, KeyExpr: expr, Parameters: parameters, Options: opts})
	e.mu.Unlock()
	if e.CallResult != native.ErrNoSuccess {
		h.release()
		return e.CallResult
	}
	values := make([]any, len(e.Replies))
	for i, r := range e.Replies {
		values[i] = r
	}
	e.later(h, values)
	return native.ErrNoSuccess
}

func (e *Engine) DeclarePublisher(s native.Session, expr string, _ *native.PublisherOptions) native.Publisher {
	p := native.Publisher(e.declare(KindPublisher, s, nil))
	if p != 0 {
		e.mu.Lock()
		e.publisher[p] = publisherInfo{session: s, expr: expr}
		e.mu.Unlock()
	}
	return p
}

func (e *Engine) UndeclarePublisher(p native.Publisher) native.ErrNo {
	return e.undeclare(KindPublisher, uint32(p))
}

func (e *Engine) PublisherPut(p native.Publisher, payload []byte, opts *native.PublisherPutOptions) native.ErrNo {
	e.mu.Lock()
	info := e.publisher[p]
	call := PutCall{Session: info.session, Publisher: p, KeyExpr: info.expr, Payload: append([]byte(nil), payload...)}
	e.mu.Unlock()
	if opts != nil {
		call.Options = opts
	}
	return e.record(call)
}

func (e *Engine) PublisherDelete(p native.Publisher, opts *native.PublisherDeleteOptions) native.ErrNo {
	e.mu.Lock()
	info := e.publisher[p]
	call := PutCall{Session: info.session, Publisher: p, KeyExpr: info.expr, Delete: true}
	e.mu.Unlock()
	if opts != nil {
		call.Options = opts
	}
	return e.record(call)
}

func (e *Engine) DeclareSubscriber(s native.Session, _ string, cb *native.Closure[native.Sample], _ *native.SubscriberOptions) native.Subscriber {
	return native.Subscriber(e.declare(KindSubscriber, s, hold(cb)))
}

func (e *Engine) UndeclareSubscriber(sub native.Subscriber) native.ErrNo {
	return e.undeclare(KindSubscriber, uint32(sub))
}

func (e *Engine) DeclarePullSubscriber(s native.Session, _ string, cb *native.Closure[native.Sample], _ *native.PullSubscriberOptions) native.PullSubscriber {
	return native.PullSubscriber(e.declare(KindPullSubscriber, s, hold(cb)))
}

func (e *Engine) Pull(native.PullSubscriber) native.ErrNo {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pulls++
	return e.CallResult
}

func (e *Engine) UndeclarePullSubscriber(sub native.PullSubscriber) native.ErrNo {
	return e.undeclare(KindPullSubscriber, uint32(sub))
}

func (e *Engine) DeclareQueryable(s native.Session, _ string, cb *native.Closure[native.Query], _ *native.QueryableOptions) native.Queryable {
	return native.Queryable(e.declare(KindQueryable, s, hold(cb)))
}

func (e *Engine) UndeclareQueryable(q native.Queryable) native.ErrNo {
	return e.undeclare(KindQueryable, uint32(q))
}

func (e *Engine) QueryReply(native.QueryID, string, []byte, *native.QueryReplyOptions) native.ErrNo {
	return e.CallResult
}

func (e *Engine) Scout(cfg *native.ScoutingConfig, cb *native.Closure[native.Hello]) native.ErrNo {
	h := hold(cb)
	if cfg == nil || e.CallResult != native.ErrNoSuccess {
		h.release()
		if cfg == nil {
			return native.ErrNoNullHandle
		}
		return e.CallResult
	}
	values := make([]any, len(e.Hellos))
	for i, hello := range e.Hellos {
		values[i] = hello
	}
	e.later(h, values)
	return native.ErrNoSuccess
}
