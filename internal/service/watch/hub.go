package watch

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/persons-api/internal/model/person"
)

// DefaultBuffer is the per-subscriber queue length used when none is configured.
const DefaultBuffer = 16

// Message is what subscribers receive for every committed write.
type Message struct {
	ID        string           `json:"id"`
	Type      person.EventKind `json:"type"`
	Person    person.Person    `json:"person"`
	Timestamp time.Time        `json:"timestamp"`
}

// Subscription is a registered listener. C is closed when the subscription
// ends, either through Close or because the hub dropped a slow reader.
type Subscription struct {
	ID string
	C  <-chan Message

	hub *Hub
}

// Close unregisters the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.hub.unsubscribe(s.ID)
}

// Hub fans store events out to subscribers. Notify never blocks: a
// subscriber whose queue is full is dropped.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]chan Message
	buffer int
	closed bool
	now    func() time.Time
}

var _ person.Notifier = (*Hub)(nil)

// NewHub creates a hub whose subscribers each buffer up to buffer messages.
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subs:   make(map[string]chan Message),
		buffer: buffer,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Subscribe registers a new listener.
func (h *Hub) Subscribe() *Subscription {
	ch := make(chan Message, h.buffer)
	sub := &Subscription{ID: uuid.NewString(), C: ch, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return sub
	}
	h.subs[sub.ID] = ch
	return sub
}

// Notify implements person.Notifier.
func (h *Hub) Notify(ev person.Event) {
	msg := Message{
		ID:        uuid.NewString(),
		Type:      ev.Kind,
		Person:    ev.Person,
		Timestamp: h.now(),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- msg:
		default:
			log.Printf("[watch] dropping slow subscriber %s", id)
			delete(h.subs, id)
			close(ch)
		}
	}
}

// Len reports the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close ends every subscription and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

func (h *Hub) unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}
