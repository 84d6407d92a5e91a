package tasks

import (
	"sync"

	"aerial/internal/store"
)

// Hub fans task snapshots out to subscribers. Publishing never blocks: a
// subscriber that falls behind loses intermediate updates, which is
// acceptable for a live progress feed backed by a persistent record.
type Hub struct {
	mu   sync.Mutex
	subs map[chan store.Task]struct{}
}

// NewHub constructs an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan store.Task]struct{})}
}

// Subscribe registers a new listener. The returned cancel function must be
// called to release the subscription.
func (h *Hub) Subscribe() (<-chan store.Task, func()) {
	ch := make(chan store.Task, 16)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers a snapshot to every subscriber that has buffer room.
func (h *Hub) Publish(task store.Task) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- task:
		default:
		}
	}
}
