package notify

import (
	"sync"

	"github.com/rs/zerolog"

	"nutriplan-backend/internal/infra/metrics"
)

// Event is one row-change notification fanned out to connected clients.
type Event struct {
	Table  string `json:"table"`
	Op     string `json:"op"`
	UserID string `json:"user_id,omitempty"`
}

// Sink receives change events. The Postgres listener publishes into a Sink
// so the composition root can fan one stream into several consumers (SSE
// hub, cache invalidation).
type Sink interface {
	Publish(ev Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ev Event)

func (f SinkFunc) Publish(ev Event) { f(ev) }

// MultiSink publishes to every sink in order.
type MultiSink []Sink

func (m MultiSink) Publish(ev Event) {
	for _, s := range m {
		s.Publish(ev)
	}
}

// Hub fans events out to per-user subscribers. Publish never blocks: a
// subscriber whose buffer is full loses the event, which is acceptable
// because clients resync on reconnect anyway.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[chan Event]struct{}
	closed bool
	log    *zerolog.Logger
}

const subscriberBuffer = 16

func NewHub(logger *zerolog.Logger) *Hub {
	l := logger.With().Str("component", "notify-hub").Logger()
	return &Hub{
		subs: make(map[string]map[chan Event]struct{}),
		log:  &l,
	}
}

// Subscribe registers a new listener for the given user and returns its
// channel plus a cancel func. Cancel is idempotent.
func (h *Hub) Subscribe(userID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	set, ok := h.subs[userID]
	if !ok {
		set = make(map[chan Event]struct{})
		h.subs[userID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	metrics.AddEventSubscriber(1)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if set, ok := h.subs[userID]; ok {
				delete(set, ch)
				if len(set) == 0 {
					delete(h.subs, userID)
				}
			}
			alreadyClosed := h.closed
			h.mu.Unlock()
			if !alreadyClosed {
				close(ch)
			}
			metrics.AddEventSubscriber(-1)
		})
	}
	return ch, cancel
}

// Publish delivers the event to the user's subscribers. An empty user ID is
// a broadcast to everyone.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}

	metrics.IncChangeEvent(ev.Table, ev.Op)

	deliver := func(set map[chan Event]struct{}) {
		for ch := range set {
			select {
			case ch <- ev:
			default:
				h.log.Debug().Str("table", ev.Table).Msg("subscriber buffer full, event dropped")
			}
		}
	}
	if ev.UserID == "" {
		for _, set := range h.subs {
			deliver(set)
		}
		return
	}
	deliver(h.subs[ev.UserID])
}

// Close tears down every subscriber channel. Publish and Subscribe become
// no-ops afterwards.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, set := range h.subs {
		for ch := range set {
			close(ch)
		}
	}
	h.subs = make(map[string]map[chan Event]struct{})
}
