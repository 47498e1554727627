package api

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"lunar-vfx/internal/config"
	"lunar-vfx/internal/render"
)

// Server is the HTTP preview API with the websocket frame stream.
// It combines the HTTP router with the WebSocket hub for live frames.
type Server struct {
	cfg           config.AppConfig
	router        *chi.Mux
	wsHub         *WebSocketHub
	stream        *FrameStream
	workers       *render.RenderWorkerPool
	rateLimiter   *IPRateLimiter
	renderLimiter *IPRateLimiter
	previews      *PreviewCache
	httpServer    *http.Server
}

// NewServer creates a new API server from cfg.
//
// IMPORTANT: Background workers do NOT start until Start() is called.
// This enables testing by allowing the server to be constructed without
// starting goroutines or opening network listeners.
//
// For testing HTTP endpoints without WebSocket support, use NewRouter() directly.
func NewServer(cfg config.AppConfig) (*Server, error) {
	cfg = withDefaults(cfg)

	s := &Server{
		cfg:           cfg,
		wsHub:         NewWebSocketHub(),
		workers:       render.NewRenderWorkerPool(cfg.Limits.RenderWorkers),
		rateLimiter:   NewIPRateLimiter(RequestLimitConfig(cfg.Server)),
		renderLimiter: NewIPRateLimiter(RenderLimitConfig(cfg.Server)),
		previews:      NewPreviewCache(DefaultMaxPreviews, PreviewTTL),
		httpServer:    &http.Server{ReadHeaderTimeout: 5 * time.Second},
	}

	stream, err := NewFrameStream(cfg, s.wsHub, s.workers, MetricsObserver{})
	if err != nil {
		return nil, err
	}
	s.stream = stream
	s.wsHub.OnCommand(stream.HandleCommand)

	// Build router using the factory
	s.router = NewRouter(RouterConfig{
		Config:        cfg,
		RateLimiter:   s.rateLimiter,
		RenderLimiter: s.renderLimiter,
		Workers:       s.workers,
		Observer:      MetricsObserver{},
		Previews:      s.previews,
	})

	// Add WebSocket routes (these need the wsHub instance)
	s.setupWebSocketRoutes()
	s.httpServer.Handler = s.router

	return s, nil
}

// setupWebSocketRoutes adds WebSocket-specific routes to the router.
// These routes need access to the wsHub instance, so they can't be
// part of the generic NewRouter factory.
func (s *Server) setupWebSocketRoutes() {
	s.router.Get("/ws", s.wsHub.HandleWebSocket)
	s.router.Get("/ws/status", s.handleStreamStatus)
}

// Start begins the HTTP server AND starts background workers.
// This is the ONLY method that starts goroutines or opens network listeners.
//
// It blocks until the server stops; a clean Shutdown returns nil.
func (s *Server) Start(addr string) error {
	// Start background workers NOW, not in constructor
	s.rateLimiter.StartCleanup()
	s.renderLimiter.StartCleanup()
	s.workers.Start()
	go s.wsHub.Run()
	s.stream.Start()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	log.Printf("🌐 API server listening on %s (%d render workers)", ln.Addr(), s.workers.GetNumWorkers())

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router returns the HTTP handler for use with httptest.
// Use this in integration tests instead of calling Start().
//
// Example:
//
//	server, _ := api.NewServer(config.Load())
//	ts := httptest.NewServer(server.Router())
//	defer ts.Close()
//	resp, _ := http.Get(ts.URL + "/api/styles")
func (s *Server) Router() http.Handler {
	return s.router
}

// Shutdown stops accepting requests, then stops the background workers.
// Call this before process exit to ensure clean cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)

	s.stream.Stop()
	s.wsHub.Stop()
	s.workers.Stop()
	s.rateLimiter.Stop()
	s.renderLimiter.Stop()
	return err
}

func (s *Server) handleStreamStatus(w http.ResponseWriter, r *http.Request) {
	stats := s.stream.GetStats()
	stats["clients"] = s.wsHub.ClientCount()
	stats["clientsRejected"] = s.wsHub.RejectedCount()
	stats["previews"] = s.previews.GetStats()
	writeJSON(w, stats)
}
