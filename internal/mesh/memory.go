package mesh

import (
	"sync"
)

// Hub is an in-process broadcast medium. Every member except the sender
// receives a copy of each frame.
type Hub struct {
	mu      sync.RWMutex
	members map[string]*Inbox
}

func NewHub() *Hub {
	return &Hub{members: make(map[string]*Inbox)}
}

// Join attaches inbox to the hub under id. Joining twice with the same id
// replaces the earlier inbox.
func (h *Hub) Join(id string, inbox *Inbox) *MemoryTransport {
	h.mu.Lock()
	h.members[id] = inbox
	h.mu.Unlock()
	return &MemoryTransport{hub: h, id: id}
}

func (h *Hub) leave(id string) {
	h.mu.Lock()
	delete(h.members, id)
	h.mu.Unlock()
}

// Members returns the number of joined nodes.
func (h *Hub) Members() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.members)
}

// MemoryTransport is one node's handle on a Hub.
type MemoryTransport struct {
	hub    *Hub
	id     string
	closed bool
	mu     sync.Mutex
}

func (t *MemoryTransport) Broadcast(payload []byte) error {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return ErrNotConnected
	}

	t.hub.mu.RLock()
	defer t.hub.mu.RUnlock()
	for id, inbox := range t.hub.members {
		if id == t.id {
			continue
		}
		inbox.Push(Frame{From: t.id, Payload: append([]byte(nil), payload...)})
	}
	return nil
}

func (t *MemoryTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	t.hub.leave(t.id)
	return nil
}
