package approval

import (
	"encoding/json"
	"fmt"
	"sync"
)

// EventType represents the type of SSE event.
type EventType string

const (
	// EventRequestAdded is sent when a new request is added to the queue.
	EventRequestAdded EventType = "request-added"
	// EventRequestRemoved is sent when a request is approved, denied or times out.
	EventRequestRemoved EventType = "request-removed"
	// EventHeartbeat keeps idle connections open.
	EventHeartbeat EventType = "heartbeat"
)

// Event is an SSE event broadcast to clients.
type Event struct {
	Type EventType
	Data string
}

// EventHub manages SSE client connections and broadcasts events.
// It is safe for concurrent use.
type EventHub struct {
	mu       sync.RWMutex
	clients  map[chan Event]struct{}
	bufSize  int
	shutdown bool
}

// NewEventHub creates a new event hub.
func NewEventHub() *EventHub {
	return &EventHub{
		clients: make(map[chan Event]struct{}),
		bufSize: 16,
	}
}

// Subscribe registers a new client. The caller must Unsubscribe when done.
// Returns nil after Close.
func (h *EventHub) Subscribe() chan Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.shutdown {
		return nil
	}
	ch := make(chan Event, h.bufSize)
	h.clients[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (h *EventHub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
}

// Broadcast sends an event to all clients, dropping it for clients whose
// buffers are full.
func (h *EventHub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.clients {
		select {
		case ch <- event:
		default:
		}
	}
}

// Close shuts down the hub and closes all client channels.
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.shutdown = true
	for ch := range h.clients {
		close(ch)
		delete(h.clients, ch)
	}
}

// ClientCount returns the number of connected clients.
func (h *EventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastRequestAdded broadcasts a request-added event carrying the request as JSON.
func (h *EventHub) BroadcastRequestAdded(req pendingRequestJSON) {
	data, _ := json.Marshal(req)
	h.Broadcast(Event{Type: EventRequestAdded, Data: string(data)})
}

// BroadcastRequestRemoved broadcasts a request-removed event with the request ID.
func (h *EventHub) BroadcastRequestRemoved(id string) {
	data, _ := json.Marshal(map[string]string{"id": id})
	h.Broadcast(Event{Type: EventRequestRemoved, Data: string(data)})
}

// FormatSSE formats an event as an SSE message.
func FormatSSE(event Event) string {
	return fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, event.Data)
}
