package local

import (
	"bytes"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/daleydeng/zenoh-go/keyexpr"
	"github.com/daleydeng/zenoh-go/native"
)

// defaultPullBuffer bounds the samples a pull subscriber keeps between two
// pulls; the oldest are discarded first.
const defaultPullBuffer = 4096

type publisher struct {
	session           native.Session
	expr              string
	congestionControl native.CongestionControl
	priority          native.Priority
}

type subscriber struct {
	id          native.Subscriber
	session     native.Session
	expr        string
	reliability native.Reliability
	worker      *worker[native.Sample]
}

type pullSubscriber struct {
	id      native.PullSubscriber
	session native.Session
	expr    string
	worker  *worker[native.Sample]

	mu      sync.Mutex
	pending []native.Sample
}

// Put publishes payload on expr to every matching subscriber.
func (e *Engine) Put(id native.Session, expr string, payload []byte, opts *native.PutOptions) native.ErrNo {
	sample := native.Sample{Kind: native.SampleKindPut, Payload: payload}
	cc, prio := native.CongestionControlDrop, native.PriorityData
	if opts != nil {
		sample.Encoding = opts.Encoding
		cc, prio = opts.CongestionControl, opts.Priority
	}
	return e.publish(id, expr, sample, cc, prio)
}

// Delete publishes a deletion of expr.
func (e *Engine) Delete(id native.Session, expr string, opts *native.DeleteOptions) native.ErrNo {
	sample := native.Sample{Kind: native.SampleKindDelete}
	cc, prio := native.CongestionControlDrop, native.PriorityData
	if opts != nil {
		cc, prio = opts.CongestionControl, opts.Priority
	}
	return e.publish(id, expr, sample, cc, prio)
}

// DeclarePublisher declares a publisher on expr.
func (e *Engine) DeclarePublisher(id native.Session, expr string, opts *native.PublisherOptions) native.Publisher {
	if err := keyexpr.Validate(expr); err != nil {
		e.log.Warn("declare publisher rejected", zap.Error(err))
		return 0
	}
	p := &publisher{
		session:           id,
		expr:              expr,
		congestionControl: native.CongestionControlDrop,
		priority:          native.PriorityData,
	}
	if opts != nil {
		p.congestionControl, p.priority = opts.CongestionControl, opts.Priority
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.sessions[id]; !ok {
		return 0
	}
	handle := native.Publisher(e.next())
	e.publishers[handle] = p
	return handle
}

// UndeclarePublisher removes a publisher.
func (e *Engine) UndeclarePublisher(handle native.Publisher) native.ErrNo {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.publishers[handle]; !ok {
		return native.ErrNoUnknownEntity
	}
	delete(e.publishers, handle)
	return native.ErrNoSuccess
}

func (e *Engine) lookupPublisher(handle native.Publisher) (*publisher, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.publishers[handle]
	return p, ok
}

// PublisherPut publishes payload with the publisher's settings.
func (e *Engine) PublisherPut(handle native.Publisher, payload []byte, opts *native.PublisherPutOptions) native.ErrNo {
	p, ok := e.lookupPublisher(handle)
	if !ok {
		return native.ErrNoUnknownEntity
	}
	sample := native.Sample{Kind: native.SampleKindPut, Payload: payload}
	if opts != nil {
		sample.Encoding = opts.Encoding
	}
	return e.publish(p.session, p.expr, sample, p.congestionControl, p.priority)
}

// PublisherDelete publishes a deletion with the publisher's settings.
func (e *Engine) PublisherDelete(handle native.Publisher, _ *native.PublisherDeleteOptions) native.ErrNo {
	p, ok := e.lookupPublisher(handle)
	if !ok {
		return native.ErrNoUnknownEntity
	}
	sample := native.Sample{Kind: native.SampleKindDelete}
	return e.publish(p.session, p.expr, sample, p.congestionControl, p.priority)
}

func (e *Engine) publish(id native.Session, expr string, sample native.Sample, cc native.CongestionControl, prio native.Priority) native.ErrNo {
	if err := keyexpr.Validate(expr); err != nil {
		return native.ErrNoInvalidKeyExpr
	}

	e.mu.Lock()
	src, ok := e.sessions[id]
	if !ok {
		e.mu.Unlock()
		return native.ErrNoSessionClosed
	}
	var subs []*subscriber
	for _, sub := range e.subscribers {
		if keyexpr.Intersects(sub.expr, expr) {
			subs = append(subs, sub)
		}
	}
	var pulls []*pullSubscriber
	for _, sub := range e.pulls {
		if keyexpr.Intersects(sub.expr, expr) {
			pulls = append(pulls, sub)
		}
	}
	e.mu.Unlock()

	sample.KeyExpr = expr
	sample.Payload = bytes.Clone(sample.Payload)
	sample.Priority = prio
	sample.CongestionControl = cc
	if src.config.TimestampingEnabled() {
		sample.Timestamp = &native.Timestamp{Time: time.Now(), ID: src.zid}
	}

	// Deliver in declaration order so a test can reason about it.
	sort.Slice(subs, func(i, j int) bool { return subs[i].id < subs[j].id })
	for _, sub := range subs {
		block := cc == native.CongestionControlBlock && sub.reliability == native.ReliabilityReliable
		sub.worker.push(sample, block)
	}
	for _, sub := range pulls {
		sub.buffer(sample)
	}
	e.log.Debug("published",
		zap.String("keyexpr", expr),
		zap.Stringer("kind", sample.Kind),
		zap.Int("len", len(sample.Payload)),
		zap.Int("subscribers", len(subs)+len(pulls)))
	return native.ErrNoSuccess
}

// DeclareSubscriber declares a subscriber on expr. On failure cb is dropped
// and the null subscriber returned.
func (e *Engine) DeclareSubscriber(id native.Session, expr string, cb *native.Closure[native.Sample], opts *native.SubscriberOptions) native.Subscriber {
	if err := keyexpr.Validate(expr); err != nil {
		e.log.Warn("declare subscriber rejected", zap.Error(err))
		cb.Drop()
		return 0
	}
	reliability := native.ReliabilityReliable
	if opts != nil {
		reliability = opts.Reliability
	}

	e.mu.Lock()
	if _, ok := e.sessions[id]; !ok {
		e.mu.Unlock()
		cb.Drop()
		return 0
	}
	handle := native.Subscriber(e.next())
	e.subscribers[handle] = &subscriber{
		id:          handle,
		session:     id,
		expr:        expr,
		reliability: reliability,
		worker:      startWorker(e, "subscriber "+expr, cb, nil),
	}
	e.mu.Unlock()
	return handle
}

// UndeclareSubscriber removes a subscriber. Its closure is dropped after the
// samples already accepted have been delivered.
func (e *Engine) UndeclareSubscriber(handle native.Subscriber) native.ErrNo {
	e.mu.Lock()
	sub, ok := e.subscribers[handle]
	delete(e.subscribers, handle)
	e.mu.Unlock()
	if !ok {
		return native.ErrNoUnknownEntity
	}
	sub.worker.close()
	return native.ErrNoSuccess
}

// DeclarePullSubscriber declares a subscriber whose samples wait for Pull.
func (e *Engine) DeclarePullSubscriber(id native.Session, expr string, cb *native.Closure[native.Sample], _ *native.PullSubscriberOptions) native.PullSubscriber {
	if err := keyexpr.Validate(expr); err != nil {
		e.log.Warn("declare pull subscriber rejected", zap.Error(err))
		cb.Drop()
		return 0
	}

	e.mu.Lock()
	if _, ok := e.sessions[id]; !ok {
		e.mu.Unlock()
		cb.Drop()
		return 0
	}
	handle := native.PullSubscriber(e.next())
	e.pulls[handle] = &pullSubscriber{
		id:      handle,
		session: id,
		expr:    expr,
		worker:  startWorker(e, "pull subscriber "+expr, cb, nil),
	}
	e.mu.Unlock()
	return handle
}

// Pull hands the samples buffered since the previous pull to the closure.
func (e *Engine) Pull(handle native.PullSubscriber) native.ErrNo {
	e.mu.Lock()
	sub, ok := e.pulls[handle]
	e.mu.Unlock()
	if !ok {
		return native.ErrNoUnknownEntity
	}
	for _, sample := range sub.drain() {
		sub.worker.push(sample, true)
	}
	return native.ErrNoSuccess
}

// UndeclarePullSubscriber removes a pull subscriber and discards the samples
// it has not pulled.
func (e *Engine) UndeclarePullSubscriber(handle native.PullSubscriber) native.ErrNo {
	e.mu.Lock()
	sub, ok := e.pulls[handle]
	delete(e.pulls, handle)
	e.mu.Unlock()
	if !ok {
		return native.ErrNoUnknownEntity
	}
	sub.drain()
	sub.worker.close()
	return native.ErrNoSuccess
}

func (s *pullSubscriber) buffer(sample native.Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) >= defaultPullBuffer {
		s.pending = s.pending[1:]
	}
	s.pending = append(s.pending, sample)
}

func (s *pullSubscriber) drain() []native.Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.pending
	s.pending = nil
	return out
}
