// Package mesh carries frames between nodes over a best-effort broadcast
// medium. Transports push inbound frames into an Inbox from their own
// goroutines; the owning node drains it from its loop with Update, so node
// state is only touched from one goroutine.
package mesh

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrNotConnected is returned by Broadcast when the medium is down.
var ErrNotConnected = errors.New("mesh: not connected")

// DefaultInboxSize bounds the frames waiting for the next Update.
const DefaultInboxSize = 32

// Frame is one payload delivered by the medium.
type Frame struct {
	From    string
	Payload []byte
}

// Transport is a broadcast medium. Broadcast must not block on the network.
type Transport interface {
	Broadcast(payload []byte) error
	Close() error
}

// Inbox is a bounded frame queue that drops the oldest frame when full.
type Inbox struct {
	mu      sync.Mutex
	ch      chan Frame
	dropped atomic.Uint64
}

func NewInbox(size int) *Inbox {
	if size <= 0 {
		size = DefaultInboxSize
	}
	return &Inbox{ch: make(chan Frame, size)}
}

// Push enqueues f and reports whether an older frame was evicted to make room.
func (in *Inbox) Push(f Frame) bool {
	in.mu.Lock()
	defer in.mu.Unlock()

	select {
	case in.ch <- f:
		return false
	default:
	}

	// drop oldest if queue full
	select {
	case <-in.ch:
		in.dropped.Add(1)
	default:
	}
	in.ch <- f
	return true
}

// Pop returns the oldest frame without blocking.
func (in *Inbox) Pop() (Frame, bool) {
	select {
	case f := <-in.ch:
		return f, true
	default:
		return Frame{}, false
	}
}

func (in *Inbox) Len() int { return len(in.ch) }

// Dropped returns how many frames were evicted since creation.
func (in *Inbox) Dropped() uint64 { return in.dropped.Load() }

// Handler processes one inbound frame on the node's goroutine.
type Handler func(Frame)

// Node binds a transport and its inbox to a frame handler.
type Node struct {
	transport Transport
	inbox     *Inbox
	handler   Handler
}

func NewNode(t Transport, inbox *Inbox, h Handler) *Node {
	return &Node{transport: t, inbox: inbox, handler: h}
}

// Update delivers every frame queued so far to the handler and returns the count.
// Frames arriving during Update wait for the next call.
func (n *Node) Update() int {
	pending := n.inbox.Len()
	delivered := 0
	for i := 0; i < pending; i++ {
		f, ok := n.inbox.Pop()
		if !ok {
			break
		}
		if n.handler != nil {
			n.handler(f)
		}
		delivered++
	}
	return delivered
}

// Broadcast hands payload to the medium.
func (n *Node) Broadcast(payload []byte) error {
	return n.transport.Broadcast(payload)
}

func (n *Node) Inbox() *Inbox { return n.inbox }

func (n *Node) Close() error { return n.transport.Close() }
