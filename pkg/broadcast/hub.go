package broadcast

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultBuffer = 16

// Hub fans messages out to room-addressed subscribers. A room typically
// corresponds to one connected user; every subscriber in a room receives
// every message emitted to it. Slow consumers have messages dropped
// rather than blocking the emitter.
type Hub[T any] struct {
	mu     sync.RWMutex
	rooms  map[string]map[string]*Subscription[T]
	buffer int
	closed bool
}

// Subscription is one receiver attached to a room.
type Subscription[T any] struct {
	id        string
	room      string
	messages  chan Message[T]
	closed    chan struct{}
	hub       *Hub[T]
	closeOnce sync.Once
}

// Message is one delivery to a room.
type Message[T any] struct {
	ID        string
	Room      string
	Payload   T
	Timestamp time.Time
}

// NewHub returns a hub whose subscriptions buffer the given number of
// messages. Non-positive buffer sizes fall back to a small default.
func NewHub[T any](buffer int) *Hub[T] {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub[T]{
		rooms:  make(map[string]map[string]*Subscription[T]),
		buffer: buffer,
	}
}

// Subscribe attaches a receiver to a room. The subscription is closed
// automatically when the context is canceled.
func (h *Hub[T]) Subscribe(ctx context.Context, room string) (*Subscription[T], error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	sub := &Subscription[T]{
		id:       uuid.NewString(),
		room:     room,
		messages: make(chan Message[T], h.buffer),
		closed:   make(chan struct{}),
		hub:      h,
	}
	subs, ok := h.rooms[room]
	if !ok {
		subs = make(map[string]*Subscription[T])
		h.rooms[room] = subs
	}
	subs[sub.id] = sub
	h.mu.Unlock()

	// The watcher must also exit when the subscriber closes itself,
	// otherwise it blocks on a long-lived context forever.
	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.closed:
		}
	}()

	return sub, nil
}

// Emit delivers a payload to every subscriber of the room. Messages to
// rooms without subscribers are discarded silently; full subscriber
// buffers drop the message for that subscriber only.
func (h *Hub[T]) Emit(_ context.Context, room string, payload T) error {
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return ErrHubClosed
	}
	subs := make([]*Subscription[T], 0, len(h.rooms[room]))
	for _, sub := range h.rooms[room] {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	msg := Message[T]{
		ID:        uuid.NewString(),
		Room:      room,
		Payload:   payload,
		Timestamp: time.Now(),
	}
	for _, sub := range subs {
		select {
		case sub.messages <- msg:
		default: // slow consumer, drop
		}
	}
	return nil
}

// Broadcast delivers a payload to every subscriber in every room.
func (h *Hub[T]) Broadcast(ctx context.Context, payload T) error {
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return ErrHubClosed
	}
	rooms := make([]string, 0, len(h.rooms))
	for room := range h.rooms {
		rooms = append(rooms, room)
	}
	h.mu.RUnlock()

	for _, room := range rooms {
		if err := h.Emit(ctx, room, payload); err != nil {
			return err
		}
	}
	return nil
}

// SubscriberCount returns the number of subscribers in a room.
func (h *Hub[T]) SubscriberCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Close shuts the hub down and closes every subscription.
func (h *Hub[T]) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	var all []*Subscription[T]
	for _, subs := range h.rooms {
		for _, sub := range subs {
			all = append(all, sub)
		}
	}
	h.rooms = make(map[string]map[string]*Subscription[T])
	h.mu.Unlock()

	for _, sub := range all {
		sub.closeChannel()
	}
	return nil
}

// Receive returns the subscription's message channel. It is closed when
// the subscription closes.
func (s *Subscription[T]) Receive() <-chan Message[T] {
	return s.messages
}

// Room returns the room the subscription is attached to.
func (s *Subscription[T]) Room() string {
	return s.room
}

// Close detaches the subscription from the hub. Idempotent.
func (s *Subscription[T]) Close() {
	s.closeOnce.Do(func() {
		s.hub.mu.Lock()
		if subs, ok := s.hub.rooms[s.room]; ok {
			delete(subs, s.id)
			if len(subs) == 0 {
				delete(s.hub.rooms, s.room)
			}
		}
		s.hub.mu.Unlock()
		close(s.closed)
		close(s.messages)
	})
}

// closeChannel closes the message channel without touching hub state,
// used during hub shutdown after the room map was already cleared.
func (s *Subscription[T]) closeChannel() {
	s.closeOnce.Do(func() {
		close(s.closed)
		close(s.messages)
	})
}
