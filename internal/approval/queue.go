package approval

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Response statuses delivered to a waiting request.
const (
	StatusApproved = "approved"
	StatusDenied   = "denied"
	StatusTimeout  = "timeout"
)

// Response is the decision delivered to a waiting request.
type Response struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// PendingRequest is a write request awaiting a decision on the web channel.
type PendingRequest struct {
	ID        string
	Prompt    Prompt
	Timestamp time.Time
	Response  chan<- Response // buffered; receives exactly one Response
}

// Queue manages pending approval requests with thread-safe operations.
type Queue struct {
	mu       sync.RWMutex
	requests map[string]*PendingRequest
	cancels  map[string]context.CancelFunc
	timeout  time.Duration
	events   *EventHub
}

// NewQueue creates a new empty approval queue with the default timeout.
func NewQueue() *Queue {
	return NewQueueWithTimeout(DefaultTimeout)
}

// NewQueueWithTimeout creates a new empty approval queue with a custom timeout.
func NewQueueWithTimeout(timeout time.Duration) *Queue {
	return &Queue{
		requests: make(map[string]*PendingRequest),
		cancels:  make(map[string]context.CancelFunc),
		timeout:  timeout,
	}
}

// SetEventHub sets the hub notified when requests are added or removed.
func (q *Queue) SetEventHub(hub *EventHub) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = hub
}

// Add queues req under a new random ID and returns the ID. A timeout
// goroutine resolves the request with StatusTimeout if nothing else does.
func (q *Queue) Add(req *PendingRequest) string {
	id := uuid.NewString()
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now()
	}

	ctx, cancel := context.WithCancel(context.Background())

	q.mu.Lock()
	req.ID = id
	q.requests[id] = req
	q.cancels[id] = cancel
	events := q.events
	q.mu.Unlock()

	if events != nil {
		events.BroadcastRequestAdded(toJSON(*req))
	}

	go q.handleTimeout(ctx, id)
	return id
}

func (q *Queue) handleTimeout(ctx context.Context, id string) {
	timer := time.NewTimer(q.timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
		q.Resolve(id, Response{Status: StatusTimeout, Reason: "request timed out waiting for approval"})
	}
}

// Resolve removes the request and delivers resp to it. It returns false if
// the request was already resolved or removed, so each request receives at
// most one Response.
func (q *Queue) Resolve(id string, resp Response) bool {
	q.mu.Lock()
	req, ok := q.take(id)
	events := q.events
	q.mu.Unlock()

	if !ok {
		return false
	}
	if events != nil {
		events.BroadcastRequestRemoved(id)
	}
	if req.Response != nil {
		select {
		case req.Response <- resp:
		default:
		}
	}
	return true
}

// Get retrieves a pending request by ID.
func (q *Queue) Get(id string) (*PendingRequest, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	req, ok := q.requests[id]
	return req, ok
}

// Remove drops a pending request without delivering a response.
// This is a no-op if the ID is not found.
func (q *Queue) Remove(id string) {
	q.mu.Lock()
	_, ok := q.take(id)
	events := q.events
	q.mu.Unlock()

	if ok && events != nil {
		events.BroadcastRequestRemoved(id)
	}
}

// take deletes id and cancels its timer. Caller holds q.mu.
func (q *Queue) take(id string) (*PendingRequest, bool) {
	req, ok := q.requests[id]
	if !ok {
		return nil, false
	}
	if cancel, ok := q.cancels[id]; ok {
		cancel()
		delete(q.cancels, id)
	}
	delete(q.requests, id)
	return req, true
}

// List returns copies of all pending requests, oldest first.
// The Response channel is omitted from the copies.
func (q *Queue) List() []PendingRequest {
	q.mu.RLock()
	result := make([]PendingRequest, 0, len(q.requests))
	for _, req := range q.requests {
		result = append(result, PendingRequest{
			ID:        req.ID,
			Prompt:    req.Prompt,
			Timestamp: req.Timestamp,
		})
	}
	q.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result
}

// Len returns the number of pending requests in the queue.
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.requests)
}
