// Package realtime pushes post events to connected clients over WebSocket
// and server-sent events, optionally fanned out across processes via Redis.
package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/msomdec/postfeed/internal/domain"
	"github.com/msomdec/postfeed/internal/handler"
	"github.com/msomdec/postfeed/internal/metrics"
)

// DefaultBuffer is the number of events queued per subscriber before new
// events are dropped for it.
const DefaultBuffer = 16

// Message is the JSON frame sent to push subscribers.
type Message struct {
	Action domain.PostAction `json:"action"`
	Post   handler.PostDTO   `json:"post"`
}

// NewMessage converts an event to its wire shape.
func NewMessage(ev domain.PostEvent) Message {
	return Message{Action: ev.Action, Post: handler.ToPostDTO(ev.Post)}
}

// Hub broadcasts events to every current subscriber. A subscriber that
// falls behind loses events rather than slowing down publishers.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	buffer int
	closed bool
}

var _ domain.Notifier = (*Hub)(nil)

// NewHub creates a Hub with the given per-subscriber buffer.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{subs: make(map[*Subscription]struct{}), buffer: buffer}
}

// Subscription is one subscriber's event stream.
type Subscription struct {
	ID     string
	hub    *Hub
	events chan domain.PostEvent
	once   sync.Once
}

// Events returns the stream. It is closed when the subscription or the hub
// is closed.
func (s *Subscription) Events() <-chan domain.PostEvent {
	return s.events
}

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription) Close() {
	s.hub.remove(s)
}

// Subscribe registers a new subscriber. Subscribing to a closed hub returns
// an already closed subscription.
func (h *Hub) Subscribe() *Subscription {
	sub := &Subscription{
		ID:     uuid.NewString(),
		hub:    h,
		events: make(chan domain.PostEvent, h.buffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		sub.once.Do(func() { close(sub.events) })
		return sub
	}
	h.subs[sub] = struct{}{}
	metrics.SubscriberConnected()
	return sub
}

// Publish delivers ev to every subscriber without blocking.
func (h *Hub) Publish(_ context.Context, ev domain.PostEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs {
		select {
		case sub.events <- ev:
		default:
			metrics.DroppedEvent()
		}
	}
	return nil
}

// Len returns the number of current subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close ends every subscription and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for sub := range h.subs {
		h.drop(sub)
	}
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; ok {
		h.drop(sub)
	}
}

// drop must be called with h.mu held.
func (h *Hub) drop(sub *Subscription) {
	delete(h.subs, sub)
	metrics.SubscriberDisconnected()
	sub.once.Do(func() { close(sub.events) })
}
