package api

import (
	"crypto/subtle"
	"errors"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lunar-vfx/internal/vfx"
)

// Metrics with bounded cardinality: preset labels only ever carry registered
// preset names, endpoint labels carry route patterns.
var (
	presetInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vfx_preset_invocations_total",
		Help: "Preset calls by preset name",
	}, []string{"preset"})

	bloomSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vfx_bloom_skipped_total",
		Help: "Bloom draws skipped because the glow texture was not loaded",
	})

	hostFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vfx_host_failures_total",
		Help: "Host panics recovered inside presets",
	}, []string{"preset"})

	frameRenderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vfx_frame_render_duration_seconds",
		Help:    "Time spent rendering a preview or stream frame",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
	})

	activeParticles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vfx_active_particles",
		Help: "Live dust particles in the stream canvas",
	})

	streamFramesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vfx_stream_frames_dropped_total",
		Help: "Encoded stream frames dropped because broadcasting fell behind",
	})

	// reason is one of rate_limit, render_limit, origin, ws_ip_limit, ws_total_limit
	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Requests and stream viewers refused, by reason",
	}, []string{"reason"})

	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"method", "endpoint"})

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by route pattern and status code",
	}, []string{"method", "endpoint", "code"})

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Stream viewers currently connected",
	})

	wsMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "Messages broadcast to stream viewers",
	})
)

// MetricsObserver reports composer bookkeeping to Prometheus.
type MetricsObserver struct{}

var _ vfx.Observer = MetricsObserver{}

func (MetricsObserver) PresetInvoked(preset string) {
	presetInvocations.WithLabelValues(preset).Inc()
}

func (MetricsObserver) BloomSkipped(string) {
	bloomSkipped.Inc()
}

func (MetricsObserver) HostFailure(preset string, _ any) {
	hostFailures.WithLabelValues(preset).Inc()
}

// ObservabilityConfig configures the debug listener.
type ObservabilityConfig struct {
	Enabled       bool
	ListenAddr    string
	AllowExternal bool // permit a non-loopback ListenAddr
	BasicAuthUser string
	BasicAuthPass string
}

const defaultDebugAddr = "127.0.0.1:6060"

// ObservabilityFromEnv reads DEBUG_ADDR, DEBUG_USER, DEBUG_PASS,
// DISABLE_DEBUG_SERVER and ALLOW_DEBUG_EXTERNAL.
func ObservabilityFromEnv() ObservabilityConfig {
	cfg := ObservabilityConfig{
		Enabled:       os.Getenv("DISABLE_DEBUG_SERVER") != "true",
		ListenAddr:    os.Getenv("DEBUG_ADDR"),
		AllowExternal: os.Getenv("ALLOW_DEBUG_EXTERNAL") == "true",
		BasicAuthUser: os.Getenv("DEBUG_USER"),
		BasicAuthPass: os.Getenv("DEBUG_PASS"),
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = defaultDebugAddr
	}
	return cfg
}

// NewDebugHandler serves pprof, /metrics and /health, behind basic auth when
// a user is configured.
func NewDebugHandler(cfg ObservabilityConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	if cfg.BasicAuthUser == "" {
		return mux
	}
	return basicAuth(cfg.BasicAuthUser, cfg.BasicAuthPass, mux)
}

// debugAddr pins addr to loopback unless external binding is allowed.
func debugAddr(cfg ObservabilityConfig) string {
	if cfg.AllowExternal {
		return cfg.ListenAddr
	}
	host, _, err := net.SplitHostPort(cfg.ListenAddr)
	if err == nil {
		if host == "localhost" {
			return cfg.ListenAddr
		}
		if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
			return cfg.ListenAddr
		}
	}
	log.Printf("⚠️ Debug server address %q is not loopback, using %s", cfg.ListenAddr, defaultDebugAddr)
	return defaultDebugAddr
}

// StartDebugServer binds the debug listener and serves it in the background.
// It returns nil, nil when disabled.
func StartDebugServer(cfg ObservabilityConfig) (*http.Server, error) {
	if !cfg.Enabled {
		log.Println("📊 Debug server disabled")
		return nil, nil
	}

	addr := debugAddr(cfg)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Handler:           NewDebugHandler(cfg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Printf("📊 Debug server on http://%s (pprof /debug/pprof/, metrics /metrics)", ln.Addr())

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("⚠️ Debug server error: %v", err)
		}
	}()
	return srv, nil
}

func basicAuth(user, pass string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 ||
			subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", `Basic realm="lunar-vfx debug"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// metricsMiddleware records latency and status per route pattern. Must be
// installed with r.Use so chi has resolved the pattern by the time it reads it.
// The chi wrapper keeps http.Hijacker, which /ws needs.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			endpoint = rctx.RoutePattern()
		}
		RecordRequest(r.Method, endpoint, status, time.Since(start))
	})
}

// RecordFrameRender observes one preview or stream frame render.
func RecordFrameRender(duration time.Duration) {
	frameRenderDuration.Observe(duration.Seconds())
}

// UpdateParticleCount sets the live dust gauge.
func UpdateParticleCount(count int) {
	activeParticles.Set(float64(count))
}

// RecordConnectionRejected counts a refused request or viewer by reason.
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// RecordRequest observes one HTTP request against its route pattern.
func RecordRequest(method, endpoint string, status int, duration time.Duration) {
	requestLatency.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	requestTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
}

func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

func IncrementWSMessages() {
	wsMessagesTotal.Inc()
}
