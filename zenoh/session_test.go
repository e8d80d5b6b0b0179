package zenoh

import (
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/atomix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daleydeng/zenoh-go/native"
	"github.com/daleydeng/zenoh-go/native/nativetest"
)

// tracker counts the payload calls and teardowns of one handler and notes
// any call that arrives after the teardown.
type tracker struct {
	calls atomix.Int32
	drops atomix.Int32
	late  atomix.Bool
}

func track[T any](tr *tracker) *Closure[T] {
	return NewClosure(
		func(T) {
			if tr.drops.Load() > 0 {
				tr.late.Store(true)
			}
			tr.calls.Add(1)
		},
		func() { tr.drops.Add(1) },
	)
}

func openFake(t *testing.T) (*nativetest.Engine, *Session) {
	t.Helper()
	fake := nativetest.New()
	s, err := Open(ConfigDefault().SetEngine(fake))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return fake, s
}

func collect[T any](t *testing.T, ch <-chan T) []T {
	t.Helper()
	var out []T
	timeout := time.After(5 * time.Second)
	for {
		select {
		case v, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, v)
		case <-timeout:
			t.Fatal("timeout waiting for handler drop")
			return out
		}
	}
}

var demo = MustKeyExprView("demo/test")

func TestOpenConsumesConfig(t *testing.T) {
	fake := nativetest.New()
	cfg := ConfigDefault().SetEngine(fake)

	s, err := Open(cfg)
	require.NoError(t, err)
	assert.False(t, cfg.Check(), "Open must consume the config")
	assert.True(t, s.Check())
	assert.False(t, s.InfoZid().IsZero())

	require.NoError(t, s.Close())
	assert.False(t, s.Check())
	require.NoError(t, s.Close())
	assert.Equal(t, 1, fake.Releases(nativetest.KindSession))
	assert.True(t, s.InfoZid().IsZero())

	assert.Panics(t, func() { Open(cfg) }, "a consumed config cannot be opened again")
}

func TestOpenFailure(t *testing.T) {
	fake := nativetest.New()
	fake.FailOpen = true
	cfg := ConfigDefault().SetEngine(fake)

	s, err := Open(cfg)
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrOpenSession)
	assert.EqualError(t, err, "Unable to open session")
	assert.False(t, cfg.Check())
	assert.Equal(t, 0, fake.Releases(nativetest.KindSession))
}

func TestSessionConfigIsACopy(t *testing.T) {
	_, s := openFake(t)
	cfg := s.Config()
	require.True(t, cfg.Check())
	require.NoError(t, cfg.Insert("mode", `"client"`))
	assert.Equal(t, ModeClient, cfg.Mode())
	assert.Equal(t, ModePeer, s.Config().Mode())
}

type declareCase struct {
	name     string
	kind     nativetest.Kind
	sentinel error
	declare  func(s *Session, tr *tracker) (interface{ Close() error }, error)
}

var handlerDeclares = []declareCase{
	{
		name:     "subscriber",
		kind:     nativetest.KindSubscriber,
		sentinel: ErrCreateSubscriber,
		declare: func(s *Session, tr *tracker) (interface{ Close() error }, error) {
			return s.DeclareSubscriber(demo, track[Sample](tr), nil)
		},
	},
	{
		name:     "pull subscriber",
		kind:     nativetest.KindPullSubscriber,
		sentinel: ErrCreatePullSubscriber,
		declare: func(s *Session, tr *tracker) (interface{ Close() error }, error) {
			return s.DeclarePullSubscriber(demo, track[Sample](tr), nil)
		},
	},
	{
		name:     "queryable",
		kind:     nativetest.KindQueryable,
		sentinel: ErrCreateQueryable,
		declare: func(s *Session, tr *tracker) (interface{ Close() error }, error) {
			return s.DeclareQueryable(demo, track[Query](tr), nil)
		},
	},
}

func TestDeclareOnClosedSessionDropsHandler(t *testing.T) {
	for _, tc := range handlerDeclares {
		t.Run(tc.name, func(t *testing.T) {
			fake, s := openFake(t)
			require.NoError(t, s.Close())

			var tr tracker
			entity, err := tc.declare(s, &tr)
			assert.Nil(t, entity)
			assert.ErrorIs(t, err, tc.sentinel)
			assert.EqualValues(t, 1, tr.drops.Load())
			assert.EqualValues(t, 0, tr.calls.Load())
			assert.Empty(t, fake.Declared(tc.kind), "the engine must not be asked")
		})
	}
}

func TestDeclareOnZeroSessionDropsHandler(t *testing.T) {
	for _, tc := range handlerDeclares {
		t.Run(tc.name, func(t *testing.T) {
			var tr tracker
			entity, err := tc.declare(&Session{}, &tr)
			assert.Nil(t, entity)
			assert.ErrorIs(t, err, tc.sentinel)
			assert.EqualValues(t, 1, tr.drops.Load())
		})
	}
}

func TestDeclareFailureDropsHandler(t *testing.T) {
	for _, tc := range handlerDeclares {
		t.Run(tc.name, func(t *testing.T) {
			fake, s := openFake(t)
			fake.FailDeclare[tc.kind] = true

			var tr tracker
			entity, err := tc.declare(s, &tr)
			assert.Nil(t, entity)
			assert.ErrorIs(t, err, tc.sentinel)
			assert.EqualError(t, err, tc.sentinel.Error())
			assert.EqualValues(t, 1, tr.drops.Load())
			assert.Equal(t, 0, fake.Releases(tc.kind), "an invalid entity is never released")
		})
	}
}

func TestDeclareHandedOffHandlerTwicePanics(t *testing.T) {
	_, s := openFake(t)
	closure := NewClosure(func(Sample) {}, nil)
	_, err := s.DeclareSubscriber(demo, closure, nil)
	require.NoError(t, err)
	assert.False(t, closure.Check())

	assert.Panics(t, func() { s.DeclareSubscriber(demo, closure, nil) })
}

func TestDeclarePublisherFailure(t *testing.T) {
	fake, s := openFake(t)
	fake.FailDeclare[nativetest.KindPublisher] = true

	pub, err := s.DeclarePublisher(demo, nil)
	assert.Nil(t, pub)
	assert.EqualError(t, err, "Unable to create publisher")

	require.NoError(t, s.Close())
	fake.FailDeclare[nativetest.KindPublisher] = false
	_, err = s.DeclarePublisher(demo, nil)
	assert.ErrorIs(t, err, ErrCreatePublisher)
	assert.Equal(t, 0, fake.Releases(nativetest.KindPublisher))
}

func TestEntityCloseReleasesOnce(t *testing.T) {
	cases := []struct {
		kind    nativetest.Kind
		declare func(s *Session) (interface{ Close() error }, error)
	}{
		{nativetest.KindPublisher, func(s *Session) (interface{ Close() error }, error) {
			return s.DeclarePublisher(demo, nil)
		}},
		{nativetest.KindSubscriber, func(s *Session) (interface{ Close() error }, error) {
			return s.DeclareSubscriber(demo, NewFifoChannel[Sample](1), nil)
		}},
		{nativetest.KindPullSubscriber, func(s *Session) (interface{ Close() error }, error) {
			return s.DeclarePullSubscriber(demo, NewRingChannel[Sample](1), nil)
		}},
		{nativetest.KindQueryable, func(s *Session) (interface{ Close() error }, error) {
			return s.DeclareQueryable(demo, NewClosure(func(Query) {}, nil), nil)
		}},
		{nativetest.KindKeyExpr, func(s *Session) (interface{ Close() error }, error) {
			return s.DeclareKeyExpr(demo), nil
		}},
	}

	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			fake, s := openFake(t)
			entity, err := tc.declare(s)
			require.NoError(t, err)

			require.NoError(t, entity.Close())
			require.NoError(t, entity.Close())
			assert.Equal(t, 1, fake.Releases(tc.kind))
		})
	}
}

func TestPublisherPutThenClose(t *testing.T) {
	fake, s := openFake(t)

	pub, err := s.DeclarePublisher(demo, nil)
	require.NoError(t, err)
	assert.True(t, pub.Check())
	assert.Equal(t, "demo/test", pub.KeyExpr().String())

	require.NoError(t, pub.Put([]byte{1, 2, 3}, nil))

	puts := fake.Puts()
	require.Len(t, puts, 1)
	assert.Equal(t, []byte{1, 2, 3}, puts[0].Payload)
	assert.Equal(t, "demo/test", puts[0].KeyExpr)
	assert.Nil(t, puts[0].Options, "nil options must reach the engine as nil")

	require.NoError(t, pub.Close())
	assert.False(t, pub.Check())
	assert.Equal(t, 1, fake.Releases(nativetest.KindPublisher))

	assert.Panics(t, func() { pub.Put([]byte{4}, nil) })
	assert.Panics(t, func() { pub.Delete(nil) })
}

func TestPublisherOptionsForwarded(t *testing.T) {
	fake, s := openFake(t)
	pub, err := s.DeclarePublisher(demo, &PublisherOptions{CongestionControl: CongestionControlBlock})
	require.NoError(t, err)

	require.NoError(t, pub.Put(nil, &PublisherPutOptions{Encoding: NewEncoding(EncodingTextPlain, "")}))
	require.NoError(t, pub.Delete(&PublisherDeleteOptions{}))

	puts := fake.Puts()
	require.Len(t, puts, 2)
	opts, ok := puts[0].Options.(*native.PublisherPutOptions)
	require.True(t, ok)
	assert.Equal(t, "text/plain", opts.Encoding.String())
	assert.True(t, puts[1].Delete)
	assert.IsType(t, &native.PublisherDeleteOptions{}, puts[1].Options)
}

func TestSubscriberDeliveryThenClose(t *testing.T) {
	fake, s := openFake(t)

	var tr tracker
	sub, err := s.DeclareSubscriber(demo, track[Sample](&tr), nil)
	require.NoError(t, err)
	assert.Equal(t, "demo/test", sub.KeyExpr().String())

	declared := fake.Declared(nativetest.KindSubscriber)
	require.Len(t, declared, 1)

	samples := make([]any, 5)
	for i := range samples {
		samples[i] = native.Sample{KeyExpr: "demo/test", Payload: []byte{byte(i)}}
	}
	assert.Equal(t, 5, fake.Deliver(declared[0], 4, samples...))
	assert.EqualValues(t, 5, tr.calls.Load())
	assert.EqualValues(t, 0, tr.drops.Load())

	require.NoError(t, sub.Close())
	assert.EqualValues(t, 1, tr.drops.Load())
	assert.False(t, tr.late.Load())

	assert.Equal(t, 0, fake.Deliver(declared[0], 1, samples[0]))
	assert.EqualValues(t, 5, tr.calls.Load())
}

func TestSubscriberCloseDuringDelivery(t *testing.T) {
	fake, s := openFake(t)

	var tr tracker
	sub, err := s.DeclareSubscriber(demo, track[Sample](&tr), nil)
	require.NoError(t, err)
	handle := fake.Declared(nativetest.KindSubscriber)[0]

	samples := make([]any, 1000)
	for i := range samples {
		samples[i] = native.Sample{KeyExpr: "demo/test"}
	}

	var wg sync.WaitGroup
	var delivered int
	wg.Add(1)
	go func() {
		defer wg.Done()
		delivered = fake.Deliver(handle, 8, samples...)
	}()
	time.Sleep(time.Millisecond)
	require.NoError(t, sub.Close())
	wg.Wait()

	assert.EqualValues(t, 1, tr.drops.Load())
	assert.False(t, tr.late.Load(), "no payload may follow the teardown")
	assert.EqualValues(t, delivered, tr.calls.Load())
}

func TestSubscriberReceivesOwnedSample(t *testing.T) {
	fake, s := openFake(t)
	fifo := NewFifoChannel[Sample](1)
	sub, err := s.DeclareSubscriber(demo, fifo, nil)
	require.NoError(t, err)

	payload := []byte("hello")
	ts := &native.Timestamp{Time: time.Unix(10, 0)}
	fake.Deliver(fake.Declared(nativetest.KindSubscriber)[0], 1, native.Sample{
		KeyExpr:   "demo/test",
		Payload:   payload,
		Kind:      native.SampleKindPut,
		Timestamp: ts,
	})
	got := <-fifo.Receiver()
	payload[0] = 'j'
	ts.Time = time.Time{}

	assert.Equal(t, "hello", string(got.Payload))
	assert.Equal(t, time.Unix(10, 0), got.Timestamp.Time)
	assert.Equal(t, SampleKindPut, got.Kind)
	assert.True(t, got.KeyExprView().Equals(demo))

	require.NoError(t, sub.Close())
	_, open := <-fifo.Receiver()
	assert.False(t, open, "closing the subscriber closes the channel")
}

func TestPullSubscriber(t *testing.T) {
	fake, s := openFake(t)
	sub, err := s.DeclarePullSubscriber(demo, NewFifoChannel[Sample](4), nil)
	require.NoError(t, err)

	require.NoError(t, sub.Pull())
	require.NoError(t, sub.Pull())
	assert.Equal(t, 2, fake.Pulls())

	fake.CallResult = native.ErrNoGeneric
	assert.Equal(t, ErrNoGeneric, Code(sub.Pull()))

	require.NoError(t, sub.Close())
	assert.Panics(t, func() { sub.Pull() })
}

func TestSessionPutOptions(t *testing.T) {
	fake, s := openFake(t)

	require.NoError(t, s.Put(demo, []byte("a"), nil))
	require.NoError(t, s.Put(demo, []byte("b"), &PutOptions{Priority: PriorityRealTime}))
	require.NoError(t, s.Delete(demo, nil))
	require.NoError(t, s.Delete(demo, &DeleteOptions{}))

	puts := fake.Puts()
	require.Len(t, puts, 4)
	assert.Nil(t, puts[0].Options)
	opts, ok := puts[1].Options.(*native.PutOptions)
	require.True(t, ok)
	assert.Equal(t, native.PriorityRealTime, opts.Priority)
	assert.True(t, puts[2].Delete)
	assert.Nil(t, puts[2].Options)
	assert.NotNil(t, puts[3].Options)
}

func TestCallFailureReturnsErrNo(t *testing.T) {
	fake, s := openFake(t)
	fake.CallResult = native.ErrNoInvalidKeyExpr

	err := s.Put(demo, nil, nil)
	require.Error(t, err)
	assert.Equal(t, ErrNoInvalidKeyExpr, Code(err))
	assert.True(t, errors.Is(err, ErrNoInvalidKeyExpr))

	require.NoError(t, s.Close())
	assert.Equal(t, ErrNoSessionClosed, Code(s.Put(demo, nil, nil)))
	assert.Equal(t, ErrNoSessionClosed, Code(s.Delete(demo, nil)))
	assert.Len(t, fake.Puts(), 1, "a closed session must not reach the engine")
}

func TestGetDeliversReplies(t *testing.T) {
	fake, s := openFake(t)
	replier := native.ID{15: 9}
	fake.Replies = []native.Reply{
		{Ok: true, Sample: native.Sample{KeyExpr: "demo/test", Payload: []byte("ok")}, Replier: replier},
		{Ok: false, Err: native.Value{Payload: []byte("bad")}, Replier: replier},
	}

	fifo := NewFifoChannel[Reply](4)
	require.NoError(t, s.Get(demo, "limit=1", fifo, nil))
	replies := collect(t, fifo.Receiver())
	fake.Wait()

	require.Len(t, replies, 2)
	sample, ok := replies[0].Sample()
	require.True(t, ok)
	assert.True(t, replies[0].IsOk())
	assert.Equal(t, "ok", string(sample.Payload))
	assert.Equal(t, replier, replies[0].ReplierID())

	assert.False(t, replies[1].IsOk())
	replyErr, ok := replies[1].Err()
	require.True(t, ok)
	assert.Equal(t, "bad", string(replyErr.Payload))
	_, ok = replies[1].Sample()
	assert.False(t, ok)

	gets := fake.Gets()
	require.Len(t, gets, 1)
	assert.Equal(t, "limit=1", gets[0].Parameters)
	assert.Nil(t, gets[0].Options)
}

func TestGetOptionsForwarded(t *testing.T) {
	fake, s := openFake(t)
	opts := GetOptionsDefault()
	opts.Target = QueryTargetAll
	opts.Value = &Value{Payload: []byte("q")}
	opts.Timeout = time.Second

	var tr tracker
	require.NoError(t, s.Get(demo, "", track[Reply](&tr), &opts))
	fake.Wait()

	gets := fake.Gets()
	require.Len(t, gets, 1)
	require.NotNil(t, gets[0].Options)
	assert.Equal(t, native.QueryTargetAll, gets[0].Options.Target)
	assert.Equal(t, time.Second, gets[0].Options.Timeout)
	assert.Equal(t, "q", string(gets[0].Options.Value.Payload))
	assert.EqualValues(t, 1, tr.drops.Load())
}

func TestGetFailureDropsHandler(t *testing.T) {
	fake, s := openFake(t)
	fake.CallResult = native.ErrNoGeneric

	var tr tracker
	err := s.Get(demo, "", track[Reply](&tr), nil)
	assert.Equal(t, ErrNoGeneric, Code(err))
	assert.EqualValues(t, 1, tr.drops.Load())

	require.NoError(t, s.Close())
	var closed tracker
	err = s.Get(demo, "", track[Reply](&closed), nil)
	assert.Equal(t, ErrNoSessionClosed, Code(err))
	assert.EqualValues(t, 1, closed.drops.Load())
}

func TestQueryReply(t *testing.T) {
	fake, s := openFake(t)

	var replyErr error
	q, err := s.DeclareQueryable(demo, NewClosure(func(q Query) {
		assert.Equal(t, "demo/test", q.KeyExpr().String())
		assert.Equal(t, "x=1", q.Parameters())
		v, ok := q.Value()
		assert.True(t, ok)
		assert.Equal(t, "in", string(v.Payload))
		replyErr = q.Reply(demo, []byte("out"), nil)
	}, nil), &QueryableOptions{Complete: true})
	require.NoError(t, err)
	assert.Equal(t, "demo/test", q.KeyExpr().String())

	n := fake.Deliver(fake.Declared(nativetest.KindQueryable)[0], 1, native.Query{
		ID:         1,
		KeyExpr:    "demo/test",
		Parameters: "x=1",
		Value:      &native.Value{Payload: []byte("in")},
	})
	assert.Equal(t, 1, n)
	assert.NoError(t, replyErr)

	assert.Equal(t, ErrNoNullHandle, Code(Query{}.Reply(demo, nil, nil)))
}

func TestInfo(t *testing.T) {
	fake, s := openFake(t)
	fake.Peers = []native.ID{{15: 1}, {15: 2}}

	peers := NewFifoChannel[ID](4)
	require.NoError(t, s.InfoPeersZid(peers))
	assert.Equal(t, fake.Peers, collect(t, peers.Receiver()))

	routers := NewFifoChannel[ID](4)
	require.NoError(t, s.InfoRoutersZid(routers))
	assert.Empty(t, collect(t, routers.Receiver()))
	fake.Wait()

	require.NoError(t, s.Close())
	var tr tracker
	assert.Equal(t, ErrNoSessionClosed, Code(s.InfoPeersZid(track[ID](&tr))))
	assert.EqualValues(t, 1, tr.drops.Load())
}

func TestScout(t *testing.T) {
	fake := nativetest.New()
	fake.Hellos = []native.Hello{
		{WhatAmI: native.Router, ZID: native.ID{15: 1}, Locators: []string{"tcp/10.0.0.1:7447"}},
	}

	cfg := NewScoutingConfig().SetEngine(fake).SetWhat(Router | Peer).SetTimeout(100 * time.Millisecond)
	fifo := NewFifoChannel[Hello](4)
	require.NoError(t, Scout(cfg, fifo))
	assert.False(t, cfg.Check(), "Scout must consume the config")

	hellos := collect(t, fifo.Receiver())
	fake.Wait()
	require.Len(t, hellos, 1)
	assert.Equal(t, Router, hellos[0].WhatAmI)
	assert.Equal(t, []string{"tcp/10.0.0.1:7447"}, hellos[0].Locators)
}

func TestScoutFailureDropsHandler(t *testing.T) {
	fake := nativetest.New()
	fake.CallResult = native.ErrNoGeneric

	var tr tracker
	err := Scout(NewScoutingConfig().SetEngine(fake), track[Hello](&tr))
	assert.Equal(t, ErrNoGeneric, Code(err))
	assert.EqualValues(t, 1, tr.drops.Load())
}

func TestDeclareKeyExpr(t *testing.T) {
	fake, s := openFake(t)

	k := s.DeclareKeyExpr(demo)
	require.True(t, k.Check())
	assert.Equal(t, "demo/test", k.View().String())

	require.NoError(t, s.UndeclareKeyExpr(k))
	assert.False(t, k.Check())
	require.NoError(t, k.Close())
	assert.Equal(t, 1, fake.Releases(nativetest.KindKeyExpr))
	assert.Panics(t, func() { k.View() })

	require.NoError(t, s.Close())
	invalid := s.DeclareKeyExpr(demo)
	assert.False(t, invalid.Check())
	assert.Equal(t, ErrNoSessionClosed, Code(s.UndeclareKeyExpr(invalid)))
}

func TestUndeclareKeyExprOnOtherSession(t *testing.T) {
	fake, owner := openFake(t)
	other, err := Open(ConfigDefault().SetEngine(fake))
	require.NoError(t, err)
	defer other.Close()

	k := owner.DeclareKeyExpr(demo)
	require.True(t, k.Check())

	assert.Equal(t, ErrNoUnknownEntity, Code(other.UndeclareKeyExpr(k)))
	assert.True(t, k.Check(), "a foreign session must not consume the key expression")
	assert.Equal(t, 0, fake.Releases(nativetest.KindKeyExpr))

	require.NoError(t, owner.UndeclareKeyExpr(k))
	assert.False(t, k.Check())
	assert.Equal(t, 1, fake.Releases(nativetest.KindKeyExpr))
}

func declareAndForget(t *testing.T, s *Session, tr *tracker) {
	_, err := s.DeclareSubscriber(demo, track[Sample](tr), nil)
	require.NoError(t, err)
}

func TestSubscriberFinalizerReleases(t *testing.T) {
	fake, s := openFake(t)
	var tr tracker
	declareAndForget(t, s, &tr)

	require.Eventually(t, func() bool {
		runtime.GC()
		return fake.Releases(nativetest.KindSubscriber) == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.EqualValues(t, 1, tr.drops.Load())
}
