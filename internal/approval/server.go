package approval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/user"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/xdg/awsgate/internal/clog"
)

// DefaultListen is the approval server address. It is bound to localhost.
const DefaultListen = "127.0.0.1:9999"

// HeartbeatInterval is the interval between SSE heartbeat events.
const HeartbeatInterval = 30 * time.Second

// Server is the operator-facing JSON API for the web approval channel.
type Server struct {
	// Addr is the address to listen on (e.g., "127.0.0.1:9999").
	Addr string

	// Queue holds requests awaiting a decision.
	Queue *Queue

	// Events is the event hub for SSE connections.
	Events *EventHub

	server   *http.Server
	listener net.Listener
	mu       sync.Mutex
	running  bool
}

// NewServer creates an approval server for queue and wires an event hub to it.
func NewServer(addr string, queue *Queue) *Server {
	if addr == "" {
		addr = DefaultListen
	}
	events := NewEventHub()
	queue.SetEventHub(events)
	return &Server{
		Addr:   addr,
		Queue:  queue,
		Events: events,
	}
}

// Handler returns the HTTP routes of the approval API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/pending", s.handlePending)
	r.Get("/events", s.handleEvents)
	r.Post("/approve/{id}", s.handleApprove)
	r.Post("/deny/{id}", s.handleDeny)
	return r
}

// Start begins accepting connections. It returns an error if the server is
// already running or cannot listen.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("approval server already running")
	}

	listener, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Addr, err)
	}

	s.listener = listener
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 30 * time.Second,
	}
	s.running = true

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			clog.Error("approval server: %v", err)
		}
	}()

	clog.Info("approval server listening on %s", listener.Addr())
	return nil
}

// Stop gracefully shuts down the server and disconnects SSE clients.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false
	s.Events.Close()
	return s.server.Shutdown(ctx)
}

// ListenAddr returns the address the server is listening on, or "" if it
// is not running.
func (s *Server) ListenAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// pendingRequestJSON is a pending request in the API's JSON format.
type pendingRequestJSON struct {
	ID        string `json:"id"`
	RequestID string `json:"request_id"`
	Cmd       string `json:"cmd"`
	Profile   string `json:"profile,omitempty"`
	Region    string `json:"region,omitempty"`
	Timestamp string `json:"timestamp"`
}

func toJSON(req PendingRequest) pendingRequestJSON {
	return pendingRequestJSON{
		ID:        req.ID,
		RequestID: req.Prompt.RequestID,
		Cmd:       req.Prompt.Command,
		Profile:   req.Prompt.Profile,
		Region:    req.Prompt.Region,
		Timestamp: req.Timestamp.UTC().Format(time.RFC3339),
	}
}

type pendingResponse struct {
	Requests []pendingRequestJSON `json:"requests"`
}

type decisionResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

type denyRequest struct {
	Reason string `json:"reason,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	pending := s.Queue.List()
	resp := pendingResponse{Requests: make([]pendingRequestJSON, len(pending))}
	for i, req := range pending {
		resp.Requests[i] = toJSON(req)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.Queue.Resolve(id, Response{Status: StatusApproved}) {
		writeError(w, http.StatusNotFound, "request not found")
		return
	}
	clog.Info("approval: request %s approved by %s", id, operatorIdentity())
	writeJSON(w, http.StatusOK, decisionResponse{Status: StatusApproved, ID: id})
}

func (s *Server) handleDeny(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// The body is optional.
	var body denyRequest
	_ = json.NewDecoder(r.Body).Decode(&body)

	reason := body.Reason
	if reason == "" {
		reason = "denied by " + operatorIdentity()
	}

	if !s.Queue.Resolve(id, Response{Status: StatusDenied, Reason: reason}) {
		writeError(w, http.StatusNotFound, "request not found")
		return
	}
	clog.Info("approval: request %s denied: %s", id, reason)
	writeJSON(w, http.StatusOK, decisionResponse{Status: StatusDenied, ID: id})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	eventCh := s.Events.Subscribe()
	if eventCh == nil {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	defer s.Events.Unsubscribe(eventCh)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	ticker := time.NewTicker(HeartbeatInterval)
	defer ticker.Stop()

	for {
		var event Event
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			event = Event{Type: EventHeartbeat}
		case ev, ok := <-eventCh:
			if !ok {
				return
			}
			event = ev
		}
		if _, err := fmt.Fprint(w, FormatSSE(event)); err != nil {
			return
		}
		flusher.Flush()
	}
}

// operatorIdentity names the local user for logs, falling back to "operator".
func operatorIdentity() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "operator"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
