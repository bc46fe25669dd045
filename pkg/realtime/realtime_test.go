package realtime

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu   sync.Mutex
	got  []Delivery
	full bool
}

func (s *recordingSink) Deliver(d Delivery) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.full {
		return false
	}
	s.got = append(s.got, d)
	return true
}

func (s *recordingSink) deliveries() []Delivery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Delivery(nil), s.got...)
}

func messageEvent(sender, receiver uint) Event {
	return Event{
		Table: TableDirectMessage,
		Type:  EventInsert,
		// 模拟经过JSON往返后的记录
		Record:       map[string]interface{}{"sender_id": float64(sender), "receiver_id": float64(receiver)},
		Participants: []uint{sender, receiver},
	}
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("receiver_id=eq.5")
	require.NoError(t, err)
	assert.Equal(t, Filter{Column: "receiver_id", Value: "5"}, f)
	assert.Equal(t, "receiver_id=eq.5", f.String())

	f, err = ParseFilter("  ")
	require.NoError(t, err)
	assert.True(t, f.IsZero())

	for _, bad := range []string{"receiver_id", "=eq.1", "receiver_id=gt.1", "receiver_id=eq."} {
		_, err := ParseFilter(bad)
		assert.Error(t, err, bad)
	}
}

func TestFilterMatches(t *testing.T) {
	f := Filter{Column: "receiver_id", Value: "5"}
	assert.True(t, f.Matches(map[string]interface{}{"receiver_id": float64(5)}))
	assert.True(t, f.Matches(map[string]interface{}{"receiver_id": uint(5)}))
	assert.False(t, f.Matches(map[string]interface{}{"receiver_id": float64(6)}))
	assert.False(t, f.Matches(map[string]interface{}{}))
	assert.False(t, f.Matches(map[string]interface{}{"receiver_id": nil}))
	assert.True(t, Filter{}.Matches(nil))
}

func TestHub_DeliversOnlyToParticipantsWithMatchingFilter(t *testing.T) {
	hub := NewHub()
	alice, bob, eve := &recordingSink{}, &recordingSink{}, &recordingSink{}
	sa := hub.Attach(1, alice)
	sb := hub.Attach(2, bob)
	se := hub.Attach(3, eve)

	require.NoError(t, sa.Subscribe("inbox", TableDirectMessage, "receiver_id=eq.1"))
	require.NoError(t, sb.Subscribe("inbox", TableDirectMessage, "receiver_id=eq.2"))
	// 非参与方即使订阅全表也收不到
	require.NoError(t, se.Subscribe("all", TableDirectMessage, ""))

	n := hub.Dispatch(messageEvent(1, 2))

	assert.Equal(t, 1, n)
	assert.Empty(t, alice.deliveries())
	require.Len(t, bob.deliveries(), 1)
	assert.Equal(t, "inbox", bob.deliveries()[0].SubscriptionID)
	assert.Empty(t, eve.deliveries())
}

func TestSession_ResubscribeReplacesFilter(t *testing.T) {
	hub := NewHub()
	sink := &recordingSink{}
	s := hub.Attach(2, sink)

	require.NoError(t, s.Subscribe("thread", TableDirectMessage, "sender_id=eq.1"))
	require.NoError(t, s.Subscribe("thread", TableDirectMessage, "sender_id=eq.3"))
	assert.Equal(t, 1, s.Len())

	hub.Dispatch(messageEvent(1, 2))
	assert.Empty(t, sink.deliveries())

	hub.Dispatch(messageEvent(3, 2))
	assert.Len(t, sink.deliveries(), 1)
}

func TestSession_UnsubscribeAndClose(t *testing.T) {
	hub := NewHub()
	sink := &recordingSink{}
	s := hub.Attach(2, sink)
	require.NoError(t, s.Subscribe("a", TableDirectMessage, ""))

	assert.True(t, s.Unsubscribe("a"))
	assert.False(t, s.Unsubscribe("a"))
	hub.Dispatch(messageEvent(1, 2))
	assert.Empty(t, sink.deliveries())

	require.NoError(t, s.Subscribe("b", TableDirectMessage, ""))
	assert.Equal(t, 1, hub.Connections(2))
	s.Close()
	s.Close()
	assert.Equal(t, 0, hub.Connections(2))
	assert.Equal(t, 0, s.Len())
	assert.ErrorIs(t, s.Subscribe("c", TableDirectMessage, ""), ErrSessionClosed)
	assert.Zero(t, hub.Dispatch(messageEvent(1, 2)))
}

func TestSession_SubscribeValidation(t *testing.T) {
	s := NewHub().Attach(1, &recordingSink{})
	assert.ErrorIs(t, s.Subscribe("x", "profile", ""), ErrUnknownTable)
	assert.Error(t, s.Subscribe("", TableDirectMessage, ""))
	assert.Error(t, s.Subscribe("x", TableDirectMessage, "bogus"))
}

func TestHub_SessionEventsSkipSubscriptions(t *testing.T) {
	hub := NewHub()
	first, second, other := &recordingSink{}, &recordingSink{}, &recordingSink{}
	hub.Attach(1, first)
	hub.Attach(1, second)
	hub.Attach(2, other)

	var observed int
	hub.OnDispatch(func(ev Event, delivered int) { observed = delivered })

	err := hub.Publish(context.Background(), Event{Table: TableSession, Type: EventSignedOut, Participants: []uint{1, 1}})
	require.NoError(t, err)

	assert.Equal(t, 2, observed)
	require.Len(t, first.deliveries(), 1)
	assert.Equal(t, SessionSubscriptionID, first.deliveries()[0].SubscriptionID)
	assert.Len(t, second.deliveries(), 1)
	assert.Empty(t, other.deliveries())
}

func TestHub_FullSinkNotCounted(t *testing.T) {
	hub := NewHub()
	s := hub.Attach(2, &recordingSink{full: true})
	require.NoError(t, s.Subscribe("a", TableDirectMessage, ""))
	assert.Zero(t, hub.Dispatch(messageEvent(1, 2)))
}

func TestResyncer_CoalescesBursts(t *testing.T) {
	var calls int32
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	r := NewResyncer(func(ctx context.Context) error {
		if atomic.AddInt32(&calls, 1) == 1 {
			started <- struct{}{}
			<-release
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	r.Notify()
	<-started
	// 第一次拉取进行中，多次通知合并为一次
	for i := 0; i < 10; i++ {
		r.Notify()
	}
	close(release)

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestResyncer_RunsAllRefetchesAndReportsErrors(t *testing.T) {
	var order []string
	var mu sync.Mutex
	boom := errors.New("boom")
	r := NewResyncer(
		func(ctx context.Context) error { mu.Lock(); order = append(order, "list"); mu.Unlock(); return boom },
		func(ctx context.Context) error { mu.Lock(); order = append(order, "thread"); mu.Unlock(); return nil },
	)
	errs := make(chan error, 1)
	r.OnError(func(err error) { errs <- err })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = r.Run(ctx) }()
	r.Notify()

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, boom)
	case <-time.After(time.Second):
		t.Fatal("refetch error not reported")
	}
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 2
	}, time.Second, 5*time.Millisecond)
	mu.Lock()
	assert.Equal(t, []string{"list", "thread"}, order)
	mu.Unlock()
}

func TestEventHasParticipant(t *testing.T) {
	ev := messageEvent(1, 2)
	assert.True(t, ev.HasParticipant(2))
	assert.False(t, ev.HasParticipant(3))
}
