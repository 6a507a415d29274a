package notification

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/lokal/internal/app/playback"
)

// Mock stream for testing
type mockStream struct {
	mu       sync.Mutex
	received []*Notification
	err      error
	block    chan struct{}
}

func (s *mockStream) Send(n *Notification) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	copied := *n
	s.received = append(s.received, &copied)
	return nil
}

func (s *mockStream) sequenceNos() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []uint64
	for _, n := range s.received {
		out = append(out, n.SequenceNo)
	}
	return out
}

func (s *mockStream) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.received)
}

func (s *mockStream) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, n := range s.received {
		out = append(out, n.Type)
	}
	return out
}

func waitFor(t *testing.T, s *mockStream, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return s.count() >= n }, 2*time.Second, time.Millisecond)
}

func TestManager_BroadcastSequence(t *testing.T) {
	m := NewManager()
	defer m.Close()
	a, b := &mockStream{}, &mockStream{}
	m.Subscribe(a, nil)
	idB := m.Subscribe(b, nil)
	doneB := m.Done(idB)
	assert.Equal(t, 2, m.SubscriberCount())

	m.Broadcast(&Notification{Type: "queue_changed"})
	m.Broadcast(&Notification{Type: "state_changed"})
	waitFor(t, a, 2)
	waitFor(t, b, 2)

	assert.Equal(t, []uint64{1, 2}, a.sequenceNos())
	assert.Equal(t, []uint64{1, 2}, b.sequenceNos())

	m.Unsubscribe(idB)
	<-doneB
	m.Broadcast(&Notification{Type: "progress"})
	waitFor(t, a, 3)
	assert.Equal(t, []uint64{1, 2, 3}, a.sequenceNos())
	assert.Equal(t, []uint64{1, 2}, b.sequenceNos())
}

func TestManager_InitialNotificationComesFirst(t *testing.T) {
	m := NewManager()
	defer m.Close()
	m.Broadcast(&Notification{Type: "progress"})

	s := &mockStream{}
	m.Subscribe(s, &Notification{Type: "initial_state"})
	m.Broadcast(&Notification{Type: "mode_changed"})
	waitFor(t, s, 2)

	assert.Equal(t, []string{"initial_state", "mode_changed"}, s.types())
	assert.Equal(t, []uint64{2, 3}, s.sequenceNos())
}

func TestManager_FailedSubscriberRemoved(t *testing.T) {
	m := NewManager()
	defer m.Close()
	failing := m.Subscribe(&mockStream{err: errors.New("stream closed")}, nil)
	done := m.Done(failing)
	m.Subscribe(&mockStream{}, nil)

	m.Broadcast(&Notification{Type: "progress"})
	require.Eventually(t, func() bool { return m.SubscriberCount() == 1 }, 2*time.Second, time.Millisecond)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("failed subscriber not stopped")
	}
}

func TestManager_SlowSubscriberDoesNotBlock(t *testing.T) {
	m := NewManager()
	defer m.Close()
	slow := &mockStream{block: make(chan struct{})}
	defer close(slow.block)
	fast := &mockStream{}
	m.Subscribe(slow, nil)
	m.Subscribe(fast, nil)

	start := time.Now()
	m.Broadcast(&Notification{Type: "progress"})
	assert.Less(t, time.Since(start), time.Second)
	waitFor(t, fast, 1)
	assert.Equal(t, []uint64{1}, fast.sequenceNos())
}

// slowStream records how many Send calls overlap.
type slowStream struct {
	mockStream
	delay       time.Duration
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (s *slowStream) Send(n *Notification) error {
	cur := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		peak := s.maxInFlight.Load()
		if cur <= peak || s.maxInFlight.CompareAndSwap(peak, cur) {
			break
		}
	}
	time.Sleep(s.delay)
	return s.mockStream.Send(n)
}

func TestManager_SlowStreamSendsSequentially(t *testing.T) {
	m := NewManager()
	defer m.Close()
	s := &slowStream{delay: 50 * time.Millisecond}
	m.Subscribe(s, nil)

	for i := 0; i < 3; i++ {
		m.Broadcast(&Notification{Type: "progress"})
	}
	require.Eventually(t, func() bool { return s.count() == 3 }, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, int32(1), s.maxInFlight.Load())
	assert.Equal(t, []uint64{1, 2, 3}, s.sequenceNos())
	assert.Equal(t, 1, m.SubscriberCount())
}

func TestManager_OverflowingSubscriberDropped(t *testing.T) {
	m := NewManager()
	defer m.Close()
	stuck := &mockStream{block: make(chan struct{})}
	done := m.Done(m.Subscribe(stuck, nil))

	for i := 0; i < subscriberBuffer+2; i++ {
		m.Broadcast(&Notification{Type: "progress"})
	}
	assert.Equal(t, 0, m.SubscriberCount())

	close(stuck.block)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dropped subscriber not stopped")
	}
	assert.Equal(t, 1, stuck.count())
}

func TestManager_Run(t *testing.T) {
	m := NewManager()
	defer m.Close()
	s := &mockStream{}
	m.Subscribe(s, nil)

	events := make(chan playback.Event, 2)
	events <- playback.Event{Type: playback.EventTrackChanged, Snapshot: playback.Snapshot{CurrentIndex: 3}}
	events <- playback.Event{Type: playback.EventModeChanged}
	close(events)

	m.Run(context.Background(), events)
	waitFor(t, s, 2)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, "track_changed", s.received[0].Type)
	assert.Equal(t, 3, s.received[0].Snapshot.CurrentIndex)
	assert.Equal(t, "mode_changed", s.received[1].Type)
}
