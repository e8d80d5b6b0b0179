package local

import (
	"sync"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"
	"go.uber.org/zap"

	"github.com/daleydeng/zenoh-go/native"
)

// blockAttempts bounds how long a blocking producer backs off on a full ring
// before parking its value in the overflow backlog. Producers can run on a
// worker's own goroutine, so they must never wait for room unconditionally.
const blockAttempts = 8

// worker owns one closure handed to the engine and delivers its payloads in
// arrival order on a dedicated goroutine. After close, the payloads already
// accepted are drained, then the closure is dropped exactly once.
//
// The ring is single-consumer; producers are serialized by mu, so from the
// ring's point of view there is a single producer too. Once the backlog is
// non-empty, producers append there until the consumer has drained the ring,
// which keeps arrival order.
type worker[T any] struct {
	name    string
	cb      *native.Closure[T]
	after   func(T)
	ring    lfq.SPSC[T]
	mu      sync.Mutex
	backlog []T
	closing bool
	wake    chan struct{}
	done    chan struct{}
	stats   *stats
	log     *zap.Logger
}

func startWorker[T any](e *Engine, name string, cb *native.Closure[T], after func(T)) *worker[T] {
	w := &worker[T]{
		name:  name,
		cb:    cb,
		after: after,
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
		stats: &e.stats,
		log:   e.log,
	}
	w.ring.Init(e.queueCapacity)
	go w.run()
	return w
}

// push hands v to the worker. With block set, a full ring makes the producer
// back off and then fall back to the backlog; without it, v is dropped.
// push reports whether v was accepted.
func (w *worker[T]) push(v T, block bool) bool {
	var bo iox.Backoff
	for attempt := 0; ; attempt++ {
		w.mu.Lock()
		if w.closing {
			w.mu.Unlock()
			return false
		}
		if len(w.backlog) == 0 {
			err := w.ring.Enqueue(&v)
			if err == nil {
				w.mu.Unlock()
				w.signal()
				return true
			}
			if !iox.IsWouldBlock(err) {
				w.mu.Unlock()
				w.log.Error("delivery queue failed", zap.String("worker", w.name), zap.Error(err))
				return false
			}
		}
		if !block {
			w.mu.Unlock()
			w.stats.dropped.Add(1)
			w.log.Debug("delivery dropped", zap.String("worker", w.name))
			return false
		}
		if attempt >= blockAttempts || len(w.backlog) > 0 {
			w.backlog = append(w.backlog, v)
			w.mu.Unlock()
			w.signal()
			return true
		}
		w.mu.Unlock()
		bo.Wait()
	}
}

func (w *worker[T]) signal() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// close stops accepting payloads. The closure is dropped on the worker
// goroutine once everything accepted so far has been delivered.
func (w *worker[T]) close() {
	w.mu.Lock()
	already := w.closing
	w.closing = true
	w.mu.Unlock()
	if !already {
		w.signal()
	}
}

// wait blocks until the closure has been dropped.
func (w *worker[T]) wait() {
	<-w.done
}

func (w *worker[T]) run() {
	defer close(w.done)
	for {
		if v, err := w.ring.Dequeue(); err == nil {
			w.call(v)
			continue
		}

		w.mu.Lock()
		// A producer may have filled the ring and spilled into the backlog
		// since the unlocked check; the ring holds the older values.
		if v, err := w.ring.Dequeue(); err == nil {
			w.mu.Unlock()
			w.call(v)
			continue
		}
		if len(w.backlog) > 0 {
			batch := w.backlog
			w.backlog = nil
			w.mu.Unlock()
			for _, v := range batch {
				w.call(v)
			}
			continue
		}
		if w.closing {
			w.mu.Unlock()
			break
		}
		w.mu.Unlock()
		<-w.wake
	}
	w.cb.Drop()
	w.log.Debug("closure dropped", zap.String("worker", w.name))
}

func (w *worker[T]) call(v T) {
	if w.after != nil {
		defer w.after(v)
	}
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("closure panicked", zap.String("worker", w.name), zap.Any("recover", r))
		}
	}()
	w.cb.Call(v)
	w.stats.delivered.Add(1)
}
