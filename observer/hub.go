package observer

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
)

// Hub fans frames out to connected clients.
// A slow client loses frames instead of stalling the simulation.
// A nil *Hub is valid and publishes nothing.
type Hub struct {
	buffer int

	mu      sync.Mutex
	nextID  uint64
	clients map[uint64]chan []byte
	hello   []byte
	closed  bool

	dropped atomic.Uint64
}

// NewHub creates a hub queuing up to buffer frames per client.
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		buffer:  buffer,
		clients: make(map[uint64]chan []byte),
	}
}

// SetHello sets the message sent to each new client.
func (h *Hub) SetHello(msg Hello) error {
	if h == nil {
		return nil
	}
	msg.Type = TypeHello
	msg.ProtocolVersion = ProtocolVersion
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding hello: %w", err)
	}
	h.mu.Lock()
	h.hello = b
	h.mu.Unlock()
	return nil
}

// Publish encodes f once and queues it for every client.
func (h *Hub) Publish(f Frame) error {
	if h == nil || h.Clients() == 0 {
		return nil
	}
	b, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encoding frame: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.clients {
		select {
		case ch <- b:
		default:
			h.dropped.Add(1)
		}
	}
	return nil
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Dropped returns how many frames were discarded for full client queues.
func (h *Hub) Dropped() uint64 {
	if h == nil {
		return 0
	}
	return h.dropped.Load()
}

// Close disconnects every client. Later subscriptions get a closed channel.
func (h *Hub) Close() {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, ch := range h.clients {
		close(ch)
		delete(h.clients, id)
	}
}

func (h *Hub) subscribe() (uint64, <-chan []byte, []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	ch := make(chan []byte, h.buffer)
	if h.closed {
		close(ch)
		return h.nextID, ch, nil
	}
	h.clients[h.nextID] = ch
	return h.nextID, ch, h.hello
}

func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.clients[id]; ok {
		close(ch)
		delete(h.clients, id)
	}
}
