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

type queryable struct {
	id       native.Queryable
	session  native.Session
	expr     string
	complete bool
	worker   *worker[native.Query]
}

// queryDelivery is one query handed to one queryable. Replies are accepted
// until that queryable's callback returns.
type queryDelivery struct {
	query   *pendingQuery
	replier native.ID
}

// pendingQuery collects the replies of one get and owns its reply worker.
type pendingQuery struct {
	expr          string
	consolidation native.ConsolidationMode
	replies       *worker[native.Reply]
	timer         *time.Timer

	mu        sync.Mutex
	remaining int
	finished  bool
	latest    map[string]native.Reply
	order     []string
	forwarded map[string]time.Time
}

// DeclareQueryable declares a queryable on expr. On failure cb is dropped
// and the null queryable returned.
func (e *Engine) DeclareQueryable(id native.Session, expr string, cb *native.Closure[native.Query], opts *native.QueryableOptions) native.Queryable {
	if err := keyexpr.Validate(expr); err != nil {
		e.log.Warn("declare queryable rejected", zap.Error(err))
		cb.Drop()
		return 0
	}

	e.mu.Lock()
	if _, ok := e.sessions[id]; !ok {
		e.mu.Unlock()
		cb.Drop()
		return 0
	}
	handle := native.Queryable(e.next())
	e.queryables[handle] = &queryable{
		id:       handle,
		session:  id,
		expr:     expr,
		complete: opts != nil && opts.Complete,
		worker:   startWorker(e, "queryable "+expr, cb, func(q native.Query) { e.finishDelivery(q.ID) }),
	}
	e.mu.Unlock()
	return handle
}

// UndeclareQueryable removes a queryable. Queries already handed to it are
// still answered.
func (e *Engine) UndeclareQueryable(handle native.Queryable) native.ErrNo {
	e.mu.Lock()
	q, ok := e.queryables[handle]
	delete(e.queryables, handle)
	e.mu.Unlock()
	if !ok {
		return native.ErrNoUnknownEntity
	}
	q.worker.close()
	return native.ErrNoSuccess
}

// Get sends a query to the queryables matching expr. The reply closure is
// dropped once every reached queryable has answered, or when the timeout
// expires.
func (e *Engine) Get(id native.Session, expr, parameters string, cb *native.Closure[native.Reply], opts *native.GetOptions) native.ErrNo {
	if err := keyexpr.Validate(expr); err != nil {
		cb.Drop()
		return native.ErrNoInvalidKeyExpr
	}
	target := native.QueryTargetBestMatching
	consolidation := native.ConsolidationAuto
	var timeout time.Duration
	var value *native.Value
	if opts != nil {
		target, consolidation, timeout = opts.Target, opts.Consolidation, opts.Timeout
		if opts.Value != nil {
			value = &native.Value{Payload: bytes.Clone(opts.Value.Payload), Encoding: opts.Value.Encoding}
		}
	}

	e.mu.Lock()
	src, ok := e.sessions[id]
	if !ok {
		e.mu.Unlock()
		cb.Drop()
		return native.ErrNoSessionClosed
	}
	if timeout <= 0 {
		timeout = src.config.QueriesTimeout()
	}
	targets := e.selectQueryables(expr, target)

	pq := &pendingQuery{
		expr:          expr,
		consolidation: consolidation,
		replies:       startWorker(e, "get "+expr, cb, nil),
		remaining:     len(targets),
		latest:        make(map[string]native.Reply),
		forwarded:     make(map[string]time.Time),
	}
	type handoff struct {
		q     *queryable
		query native.Query
	}
	handoffs := make([]handoff, 0, len(targets))
	for _, q := range targets {
		qid := native.QueryID(e.next())
		e.deliveries[qid] = &queryDelivery{query: pq, replier: e.sessions[q.session].zid}
		handoffs = append(handoffs, handoff{q: q, query: native.Query{
			ID:         qid,
			KeyExpr:    expr,
			Parameters: parameters,
			Value:      value,
		}})
	}
	e.mu.Unlock()

	e.log.Debug("get", zap.String("keyexpr", expr), zap.Int("queryables", len(targets)), zap.Duration("timeout", timeout))
	if len(targets) == 0 {
		pq.finish()
		return native.ErrNoSuccess
	}
	pq.mu.Lock()
	pq.timer = time.AfterFunc(timeout, func() {
		e.log.Debug("get timed out", zap.String("keyexpr", expr))
		pq.finish()
	})
	pq.mu.Unlock()
	for _, h := range handoffs {
		if !h.q.worker.push(h.query, true) {
			e.finishDelivery(h.query.ID)
		}
	}
	return native.ErrNoSuccess
}

// selectQueryables applies the query target. It must be called with e.mu held.
func (e *Engine) selectQueryables(expr string, target native.QueryTarget) []*queryable {
	var matching, complete []*queryable
	for _, q := range e.queryables {
		if !keyexpr.Intersects(q.expr, expr) {
			continue
		}
		matching = append(matching, q)
		if q.complete && keyexpr.Includes(q.expr, expr) {
			complete = append(complete, q)
		}
	}
	byID := func(qs []*queryable) {
		sort.Slice(qs, func(i, j int) bool { return qs[i].id < qs[j].id })
	}
	byID(matching)
	byID(complete)

	switch target {
	case native.QueryTargetAll:
		return matching
	case native.QueryTargetAllComplete:
		return complete
	default:
		if len(complete) > 0 {
			return complete[:1]
		}
		return matching
	}
}

// finishDelivery closes the reply window of one query delivery.
func (e *Engine) finishDelivery(qid native.QueryID) {
	e.mu.Lock()
	d, ok := e.deliveries[qid]
	delete(e.deliveries, qid)
	e.mu.Unlock()
	if !ok {
		return
	}
	d.query.mu.Lock()
	d.query.remaining--
	done := d.query.remaining <= 0
	d.query.mu.Unlock()
	if done {
		d.query.finish()
	}
}

// QueryReply answers a query delivery whose queryable callback is running.
func (e *Engine) QueryReply(qid native.QueryID, expr string, payload []byte, opts *native.QueryReplyOptions) native.ErrNo {
	e.mu.Lock()
	d, ok := e.deliveries[qid]
	e.mu.Unlock()
	if !ok {
		return native.ErrNoQueryClosed
	}
	if err := keyexpr.Validate(expr); err != nil || !keyexpr.Intersects(expr, d.query.expr) {
		return native.ErrNoInvalidKeyExpr
	}
	reply := native.Reply{
		Ok: true,
		Sample: native.Sample{
			KeyExpr:   expr,
			Payload:   bytes.Clone(payload),
			Kind:      native.SampleKindPut,
			Priority:  native.PriorityData,
			Timestamp: &native.Timestamp{Time: time.Now(), ID: d.replier},
		},
		Replier: d.replier,
	}
	if opts != nil {
		reply.Sample.Encoding = opts.Encoding
	}
	return d.query.add(reply)
}

func (q *pendingQuery) add(reply native.Reply) native.ErrNo {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.finished {
		return native.ErrNoQueryClosed
	}
	key := reply.Sample.KeyExpr
	switch q.consolidation {
	case native.ConsolidationNone:
		q.replies.push(reply, true)
	case native.ConsolidationMonotonic:
		if last, seen := q.forwarded[key]; seen && !newer(reply, last) {
			return native.ErrNoSuccess
		}
		q.forwarded[key] = reply.Sample.Timestamp.Time
		q.replies.push(reply, true)
	default:
		prev, seen := q.latest[key]
		if !seen {
			q.order = append(q.order, key)
		}
		if !seen || newer(reply, prev.Sample.Timestamp.Time) {
			q.latest[key] = reply
		}
	}
	return native.ErrNoSuccess
}

func newer(reply native.Reply, than time.Time) bool {
	return !reply.Sample.Timestamp.Time.Before(than)
}

// finish flushes consolidated replies and releases the reply closure. Only
// the first call has an effect.
func (q *pendingQuery) finish() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.finished {
		return
	}
	q.finished = true
	if q.timer != nil {
		q.timer.Stop()
	}
	for _, key := range q.order {
		q.replies.push(q.latest[key], true)
	}
	q.replies.close()
}
