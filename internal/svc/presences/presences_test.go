package presences

import (
	"context"
	goerrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/NAKUL-XD/BitChat/internal/testutil"
	"github.com/stretchr/testify/require"
)

type fakeHandle struct {
	id  string
	err error

	mx     sync.Mutex
	events []string
}

func (h *fakeHandle) ID() string {
	return h.id
}

func (h *fakeHandle) Emit(event string, payload any) error {
	h.mx.Lock()
	defer h.mx.Unlock()

	h.events = append(h.events, event)

	return h.err
}

func (h *fakeHandle) received() []string {
	h.mx.Lock()
	defer h.mx.Unlock()

	return append([]string{}, h.events...)
}

type presenceWrite struct {
	identity string
	online   bool
}

type fakeSink struct {
	writes chan presenceWrite
	err    error
}

func (s *fakeSink) SetPresence(ctx context.Context, identity string, online bool, at time.Time) error {
	s.writes <- presenceWrite{identity, online}

	return s.err
}

func TestSetOnlineReplacesPriorHandle(t *testing.T) {
	p := New(Options{})

	first := &fakeHandle{id: "1"}
	second := &fakeHandle{id: "2"}

	p.SetOnline("alice", first)
	p.SetOnline("alice", second)

	h, ok := p.Get("alice")
	testutil.Assert(t, true, ok, "alice is online")
	testutil.Assert(t, "2", h.ID(), "last connect wins")
	testutil.Assert(t, 1, p.Count(), "one entry per identity")
}

func TestRemoveHandleIgnoresStaleHandle(t *testing.T) {
	p := New(Options{})

	first := &fakeHandle{id: "1"}
	second := &fakeHandle{id: "2"}

	p.SetOnline("alice", first)
	p.SetOnline("alice", second)

	testutil.Assert(t, false, p.RemoveHandle("alice", first), "stale handle does not evict")
	testutil.Assert(t, true, p.Online("alice"), "still online")

	testutil.Assert(t, true, p.RemoveHandle("alice", second), "current handle evicts")
	testutil.Assert(t, false, p.Online("alice"), "now offline")

	p.Remove("nobody")
}

func TestDurableUpdatesAreOrdered(t *testing.T) {
	sink := &fakeSink{writes: make(chan presenceWrite, 8), err: goerrors.New("store down")}
	p := New(Options{Sink: sink})

	h := &fakeHandle{id: "1"}
	p.SetOnline("alice", h)
	p.Remove("alice")

	testutil.Assert(t, presenceWrite{"alice", true}, testutil.Receive(t, sink.writes, time.Second, "online write"), "first write")
	testutil.Assert(t, presenceWrite{"alice", false}, testutil.Receive(t, sink.writes, time.Second, "offline write"), "second write")

	// a failed write never rolls back the mapping
	p.SetOnline("alice", h)
	testutil.Receive(t, sink.writes, time.Second, "online write")
	testutil.Assert(t, true, p.Online("alice"), "mapping kept")
}

func TestBroadcastAllExcludesAndAggregates(t *testing.T) {
	p := New(Options{})

	a := &fakeHandle{id: "a"}
	b := &fakeHandle{id: "b", err: goerrors.New("closed")}
	c := &fakeHandle{id: "c", err: goerrors.New("closed")}

	p.SetOnline("alice", a)
	p.SetOnline("bob", b)
	p.SetOnline("carol", c)

	err := p.BroadcastAll("user-status", nil, "alice")
	require.Error(t, err)
	require.Contains(t, err.Error(), "2 errors occurred")

	require.Empty(t, a.received())
	require.Equal(t, []string{"user-status"}, b.received())
	require.Equal(t, []string{"user-status"}, c.received())
}

func TestCloseDrainsQueuedWrites(t *testing.T) {
	sink := &fakeSink{writes: make(chan presenceWrite, 8)}
	p := New(Options{Sink: sink})

	h := &fakeHandle{id: "1"}
	p.SetOnline("alice", h)
	p.SetOnline("bob", h)
	testutil.Assert(t, true, p.RemoveHandle("alice", h), "current handle evicts")

	require.NoError(t, p.Close(context.Background()))
	require.Len(t, sink.writes, 3, "every queued write applied before Close returns")

	testutil.Assert(t, presenceWrite{"alice", true}, <-sink.writes, "first")
	testutil.Assert(t, presenceWrite{"bob", true}, <-sink.writes, "second")
	testutil.Assert(t, presenceWrite{"alice", false}, <-sink.writes, "third")

	// late teardowns after Close keep the map consistent and skip the store
	p.Remove("bob")
	testutil.Assert(t, false, p.Online("bob"), "removed")
	testutil.Silent[presenceWrite](t, sink.writes, 20*time.Millisecond, "no write after close")

	require.NoError(t, p.Close(context.Background()), "close is idempotent")
}

func TestQueueOrderFollowsMapOrder(t *testing.T) {
	for i := 0; i < 200; i++ {
		sink := &fakeSink{writes: make(chan presenceWrite, 8)}
		p := New(Options{Sink: sink})

		stale := &fakeHandle{id: "stale"}
		fresh := &fakeHandle{id: "fresh"}
		p.SetOnline("alice", stale)

		var wg sync.WaitGroup

		wg.Add(2)
		go func() {
			defer wg.Done()
			p.RemoveHandle("alice", stale)
		}()
		go func() {
			defer wg.Done()
			p.SetOnline("alice", fresh)
		}()
		wg.Wait()

		require.NoError(t, p.Close(context.Background()))

		var last presenceWrite
		for len(sink.writes) > 0 {
			last = <-sink.writes
		}

		require.True(t, p.Online("alice"), "the reconnecting session wins")
		require.True(t, last.online, "durable flag matches the registry")
	}
}
