package sse

import (
	"sync"
)

const (
	DefaultBuffer = 16
	// DefaultMaxLag is how many consecutive events a subscriber may miss before it is evicted.
	DefaultMaxLag = 64
)

// Event is one message fanned out on a topic.
type Event struct {
	Topic string
	Event string
	ID    string
	Data  interface{}
}

type subscriber struct {
	ch     chan Event
	missed int
}

// Hub fans events out to per-topic subscribers. A subscriber whose buffer stays full
// for more than maxLag publishes is evicted: its channel is closed so the reader can
// reconnect instead of silently skipping entries.
type Hub struct {
	mu      sync.RWMutex
	nextID  uint64
	topics  map[string]map[uint64]*subscriber
	buffer  int
	maxLag  int
	closed  bool
	evicted int
}

type Option func(*Hub)

func WithBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

func WithMaxLag(n int) Option {
	return func(h *Hub) {
		if n >= 0 {
			h.maxLag = n
		}
	}
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		topics: make(map[string]map[uint64]*subscriber),
		buffer: DefaultBuffer,
		maxLag: DefaultMaxLag,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers a reader on topic. The returned cancel func is idempotent.
// Subscribing to a closed hub yields an already closed channel.
func (h *Hub) Subscribe(topic string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, h.buffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	h.nextID++
	id := h.nextID
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[uint64]*subscriber)
	}
	h.topics[topic][id] = &subscriber{ch: ch}

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.remove(topic, id)
	}
}

// remove closes and forgets a subscriber. Callers hold the write lock.
func (h *Hub) remove(topic string, id uint64) {
	subs := h.topics[topic]
	sub, ok := subs[id]
	if !ok {
		return
	}
	close(sub.ch)
	delete(subs, id)
	if len(subs) == 0 {
		delete(h.topics, topic)
	}
}

// Publish delivers event to every subscriber of topic without blocking.
func (h *Hub) Publish(topic string, event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.publish(topic, event)
}

// PublishToMany delivers event to each topic under one lock, so readers of different
// topics observe the same ordering.
func (h *Hub) PublishToMany(topics []string, event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, topic := range topics {
		h.publish(topic, event)
	}
}

func (h *Hub) publish(topic string, event Event) {
	if h.closed {
		return
	}
	event.Topic = topic
	for id, sub := range h.topics[topic] {
		select {
		case sub.ch <- event:
			sub.missed = 0
		default:
			sub.missed++
			if sub.missed > h.maxLag {
				h.evicted++
				h.remove(topic, id)
			}
		}
	}
}

// Close disconnects every subscriber. Later publishes are ignored.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for topic, subs := range h.topics {
		for id := range subs {
			h.remove(topic, id)
		}
	}
}

func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

func (h *Hub) TotalSubscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, subs := range h.topics {
		total += len(subs)
	}
	return total
}

// Evicted reports how many subscribers were dropped for lagging.
func (h *Hub) Evicted() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.evicted
}
