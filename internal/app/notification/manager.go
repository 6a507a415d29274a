// Package notification broadcasts playback state changes to streaming subscribers.
package notification

import (
	"context"
	"sync"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/lokal/internal/app/playback"
)

// subscriberBuffer is how many notifications may wait for one subscriber
// before it is dropped.
const subscriberBuffer = 64

// Notification is one state change delivered to subscribers.
type Notification struct {
	SequenceNo uint64            `json:"sequence_no"`
	Type       string            `json:"type"`
	Snapshot   playback.Snapshot `json:"snapshot"`
}

// Stream represents a notification stream for a subscriber.
type Stream interface {
	Send(*Notification) error
}

// subscription represents a subscriber's subscription. Each subscription has a
// single sender goroutine, so its stream never sees concurrent sends.
type subscription struct {
	id      string
	stream  Stream
	queue   chan *Notification
	quit    chan struct{} // Closed by Unsubscribe
	stopped chan struct{} // Closed when the sender goroutine exits
}

// Manager manages notification subscriptions and broadcasting.
type Manager struct {
	mu            sync.Mutex
	subscriptions map[string]*subscription
	sequenceNo    uint64
}

// NewManager creates a new notification manager.
func NewManager() *Manager {
	return &Manager{
		subscriptions: make(map[string]*subscription),
	}
}

// Subscribe adds a new subscription and returns the subscription ID.
// A non-nil initial notification is stamped and delivered before any broadcast.
func (m *Manager) Subscribe(stream Stream, initial *Notification) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	sub := &subscription{
		id:      id,
		stream:  stream,
		queue:   make(chan *Notification, subscriberBuffer),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	if initial != nil {
		m.sequenceNo++
		initial.SequenceNo = m.sequenceNo
		sub.queue <- initial
	}
	m.subscriptions[id] = sub
	go m.deliver(sub)

	zlog.Debug().Msgf("notification: subscribed: id=%s total=%d", id, len(m.subscriptions))
	return id
}

// Unsubscribe removes a subscription. It does not wait for a send in flight;
// use Done for that.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unsubscribeLocked(subscriptionID)
}

func (m *Manager) unsubscribeLocked(subscriptionID string) {
	sub, ok := m.subscriptions[subscriptionID]
	if !ok {
		return
	}
	delete(m.subscriptions, subscriptionID)
	close(sub.quit)
}

// Done returns a channel that is closed once the subscription's sender has
// stopped, either after Unsubscribe or because a send failed.
func (m *Manager) Done(subscriptionID string) <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sub, ok := m.subscriptions[subscriptionID]; ok {
		return sub.stopped
	}
	closed := make(chan struct{})
	close(closed)
	return closed
}

// deliver sends queued notifications to one subscriber in order.
func (m *Manager) deliver(sub *subscription) {
	defer close(sub.stopped)

	for {
		select {
		case <-sub.quit:
			return
		case n := <-sub.queue:
			select {
			case <-sub.quit:
				return
			default:
			}
			if err := sub.stream.Send(n); err != nil {
				zlog.Debug().Msgf("notification: send failed, dropping subscriber: id=%s error=%v", sub.id, err)
				m.Unsubscribe(sub.id)
				return
			}
		}
	}
}

// Publish broadcasts a playback event.
func (m *Manager) Publish(e playback.Event) {
	m.Broadcast(&Notification{Type: e.Type.String(), Snapshot: e.Snapshot})
}

// Run publishes events until the channel closes or ctx is done.
func (m *Manager) Run(ctx context.Context, events <-chan playback.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			m.Publish(e)
		}
	}
}

// Broadcast stamps the notification with the next sequence number and queues it
// for every subscriber. It never waits on a stream; a subscriber whose queue is
// full is dropped.
func (m *Manager) Broadcast(notification *Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sequenceNo++
	notification.SequenceNo = m.sequenceNo
	for id, sub := range m.subscriptions {
		select {
		case sub.queue <- notification:
		default:
			zlog.Warn().Msgf("notification: subscriber too slow, dropping: id=%s seq=%d", id, notification.SequenceNo)
			m.unsubscribeLocked(id)
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subscriptions)
}

// Close closes the manager and removes all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.subscriptions {
		m.unsubscribeLocked(id)
	}
}
