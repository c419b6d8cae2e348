package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/xdg/awsgate/internal/clog"
	"github.com/xdg/awsgate/internal/version"
)

// DefaultListen is the streamable HTTP address.
const DefaultListen = "localhost:8000"

// MCPPath is where the streamable HTTP transport is mounted.
const MCPPath = "/mcp"

// Discovery is the document served on GET /.
type Discovery struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Profiles    int               `json:"profiles"`
	Tools       []string          `json:"tools"`
	Endpoints   map[string]string `json:"endpoints"`
	Description string            `json:"description"`
}

// Handler returns the HTTP routes: the MCP endpoint, a discovery document
// and a health check.
func (s *Server) Handler() http.Handler {
	streamable := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, nil)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Get("/", s.handleDiscovery)
	r.Get("/healthz", handleHealth)
	r.Handle(MCPPath, streamable)
	r.Handle(MCPPath+"/*", streamable)
	return r
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Discovery{
		Name:     Name,
		Version:  version.Version,
		Profiles: s.broker.ProfileCount(r.Context()),
		Tools:    s.Tools(),
		Endpoints: map[string]string{
			"mcp_streamable": MCPPath,
			"health":         "/healthz",
		},
		Description: "POST MCP requests to " + MCPPath + " using the streamable HTTP transport",
	})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		clog.Debug("http %s %s %d %s", r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// HTTPServer serves a Server's Handler on a TCP address.
type HTTPServer struct {
	Addr string

	handler  http.Handler
	server   *http.Server
	listener net.Listener
	mu       sync.Mutex
	running  bool
}

// NewHTTPServer creates an HTTPServer for s. An empty addr means DefaultListen.
func NewHTTPServer(addr string, s *Server) *HTTPServer {
	if addr == "" {
		addr = DefaultListen
	}
	return &HTTPServer{Addr: addr, handler: s.Handler()}
}

// Start begins accepting connections in the background.
func (h *HTTPServer) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running {
		return errors.New("mcp http server already running")
	}

	listener, err := net.Listen("tcp", h.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", h.Addr, err)
	}

	h.listener = listener
	h.server = &http.Server{
		Handler:           h.handler,
		ReadHeaderTimeout: 30 * time.Second,
	}
	h.running = true

	go func() {
		if err := h.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			clog.Error("mcp http server: %v", err)
		}
	}()

	clog.Info("mcp http server listening on %s", listener.Addr())
	return nil
}

// Stop gracefully shuts down the server.
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return nil
	}
	h.running = false
	return h.server.Shutdown(ctx)
}

// ListenAddr returns the bound address, or "" if the server is not running.
func (h *HTTPServer) ListenAddr() string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.listener == nil {
		return ""
	}
	return h.listener.Addr().String()
}
