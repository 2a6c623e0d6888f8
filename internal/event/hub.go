// Package event provides explicit listener registration for synchronous
// notifications. Handlers subscribe to a topic and receive every payload
// emitted on it, in subscription order, on the emitting goroutine.
package event

import "sync"

// Handler consumes a single emitted payload.
type Handler[T any] func(T)

// Hub fans payloads out to topic-keyed handlers. Emit never blocks on a
// handler other than by running it; a handler that subscribes or
// unsubscribes while being notified affects only later emissions.
type Hub[K comparable, T any] struct {
	mu     sync.RWMutex
	topics map[K][]*subscriber[T]
	nextID uint64
}

type subscriber[T any] struct {
	id      uint64
	handler Handler[T]
}

// NewHub returns an empty hub.
func NewHub[K comparable, T any]() *Hub[K, T] {
	return &Hub[K, T]{topics: map[K][]*subscriber[T]{}}
}

// Subscribe registers handler for topic and returns the function that
// removes it again. Calling the returned function more than once is a no-op.
func (h *Hub[K, T]) Subscribe(topic K, handler Handler[T]) (unsubscribe func()) {
	if handler == nil {
		return func() {}
	}
	h.mu.Lock()
	if h.topics == nil {
		h.topics = map[K][]*subscriber[T]{}
	}
	h.nextID++
	sub := &subscriber[T]{id: h.nextID, handler: handler}
	h.topics[topic] = append(h.topics[topic], sub)
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { h.remove(topic, sub.id) })
	}
}

// Emit delivers payload to every handler currently subscribed to topic.
func (h *Hub[K, T]) Emit(topic K, payload T) {
	h.mu.RLock()
	subs := h.topics[topic]
	snapshot := make([]*subscriber[T], len(subs))
	copy(snapshot, subs)
	h.mu.RUnlock()
	for _, sub := range snapshot {
		sub.handler(payload)
	}
}

// Count reports how many handlers listen on topic.
func (h *Hub[K, T]) Count(topic K) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

func (h *Hub[K, T]) remove(topic K, id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.topics[topic]
	for i, sub := range subs {
		if sub.id != id {
			continue
		}
		next := make([]*subscriber[T], 0, len(subs)-1)
		next = append(next, subs[:i]...)
		next = append(next, subs[i+1:]...)
		if len(next) == 0 {
			delete(h.topics, topic)
		} else {
			h.topics[topic] = next
		}
		return
	}
}
