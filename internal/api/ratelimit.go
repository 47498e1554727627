package api

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"lunar-vfx/internal/config"
)

// RateLimitConfig configures a per-IP token bucket.
type RateLimitConfig struct {
	RequestsPerSecond float64       // refill rate per IP
	Burst             int           // bucket size
	CleanupInterval   time.Duration // idle buckets older than twice this are dropped
	RejectReason      string        // connection_rejected_total label, "rate_limit" if empty
}

// DefaultRateLimitConfig is the JSON endpoint budget used when none is given.
var DefaultRateLimitConfig = RateLimitConfig{
	RequestsPerSecond: 10,
	Burst:             20,
	CleanupInterval:   5 * time.Minute,
	RejectReason:      "rate_limit",
}

// RequestLimitConfig is the per-IP budget for cheap JSON endpoints.
func RequestLimitConfig(cfg config.ServerConfig) RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		CleanupInterval:   DefaultRateLimitConfig.CleanupInterval,
		RejectReason:      "rate_limit",
	}
}

// RenderLimitConfig is the per-IP budget for PNG rendering, which replays a
// whole scene per request.
func RenderLimitConfig(cfg config.ServerConfig) RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: cfg.RendersPerSecond,
		Burst:             max(int(cfg.RendersPerSecond*2), 1),
		CleanupInterval:   DefaultRateLimitConfig.CleanupInterval,
		RejectReason:      "render_limit",
	}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// IPRateLimiter keeps one token bucket per client IP.
type IPRateLimiter struct {
	config RateLimitConfig

	mu      sync.Mutex
	buckets map[string]*bucket

	stopChan  chan struct{}
	stopOnce  sync.Once
	startOnce sync.Once

	allowed  atomic.Uint64
	rejected atomic.Uint64
}

// NewIPRateLimiter creates a limiter. Idle buckets are only evicted once
// StartCleanup has been called.
func NewIPRateLimiter(cfg RateLimitConfig) *IPRateLimiter {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultRateLimitConfig.CleanupInterval
	}
	if cfg.RejectReason == "" {
		cfg.RejectReason = "rate_limit"
	}
	return &IPRateLimiter{
		config:   cfg,
		buckets:  make(map[string]*bucket),
		stopChan: make(chan struct{}),
	}
}

// StartCleanup launches the eviction loop. Safe to call more than once.
func (rl *IPRateLimiter) StartCleanup() {
	rl.startOnce.Do(func() {
		go rl.cleanupLoop()
	})
}

// Stop ends the eviction loop.
func (rl *IPRateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopChan)
	})
}

func (rl *IPRateLimiter) bucketFor(ip string) *bucket {
	rl.mu.Lock()
	b, ok := rl.buckets[ip]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.Burst)}
		rl.buckets[ip] = b
	}
	rl.mu.Unlock()

	b.lastSeen.Store(time.Now().UnixNano())
	return b
}

func (rl *IPRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopChan:
			return
		case <-ticker.C:
			rl.cleanup(time.Now())
		}
	}
}

func (rl *IPRateLimiter) cleanup(now time.Time) {
	cutoff := now.Add(-2 * rl.config.CleanupInterval).UnixNano()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, b := range rl.buckets {
		if b.lastSeen.Load() < cutoff {
			delete(rl.buckets, ip)
		}
	}
}

// Allow reports whether ip may proceed now.
func (rl *IPRateLimiter) Allow(ip string) bool {
	ok, _ := rl.take(ip)
	return ok
}

// take consumes a token for ip. When none is available it returns how long
// until one would be, without consuming anything.
func (rl *IPRateLimiter) take(ip string) (bool, time.Duration) {
	limiter := rl.bucketFor(ip).limiter
	now := time.Now()

	res := limiter.ReserveN(now, 1)
	if !res.OK() {
		rl.rejected.Add(1)
		return false, time.Second
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		rl.rejected.Add(1)
		return false, delay
	}
	rl.allowed.Add(1)
	return true, 0
}

// Middleware rejects over-budget requests with 429 and a Retry-After hint.
func (rl *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := rl.take(GetClientIP(r))
		if !ok {
			RecordConnectionRejected(rl.config.RejectReason)
			w.Header().Set("Retry-After", retryAfter(wait))
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// retryAfter rounds wait up to whole seconds, at least one.
func retryAfter(wait time.Duration) string {
	secs := int(math.Ceil(wait.Seconds()))
	return strconv.Itoa(max(secs, 1))
}

// GetStats returns limiter counters.
func (rl *IPRateLimiter) GetStats() map[string]uint64 {
	rl.mu.Lock()
	tracked := len(rl.buckets)
	rl.mu.Unlock()
	return map[string]uint64{
		"allowed":  rl.allowed.Load(),
		"rejected": rl.rejected.Load(),
		"tracked":  uint64(tracked),
	}
}

// GetClientIP returns the peer address. Forwarding headers are honoured only
// when the peer itself is loopback, i.e. a local reverse proxy.
func GetClientIP(r *http.Request) string {
	peer, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		peer = r.RemoteAddr
	}
	if ip := net.ParseIP(peer); ip == nil || !ip.IsLoopback() {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return peer
}

// ConnLimiter caps concurrent stream viewers per IP.
type ConnLimiter struct {
	mu       sync.Mutex
	open     map[string]int
	maxPerIP int

	rejected atomic.Uint64
}

// NewConnLimiter creates a limiter allowing maxPerIP open connections.
func NewConnLimiter(maxPerIP int) *ConnLimiter {
	return &ConnLimiter{open: make(map[string]int), maxPerIP: maxPerIP}
}

// Acquire takes a slot for ip, reporting false when ip is at its cap.
func (cl *ConnLimiter) Acquire(ip string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.open[ip] >= cl.maxPerIP {
		cl.rejected.Add(1)
		return false
	}
	cl.open[ip]++
	return true
}

// Release returns a slot taken by Acquire.
func (cl *ConnLimiter) Release(ip string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if n := cl.open[ip]; n > 1 {
		cl.open[ip] = n - 1
	} else {
		delete(cl.open, ip)
	}
}

// Open returns the number of slots ip currently holds.
func (cl *ConnLimiter) Open(ip string) int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.open[ip]
}

// Rejected returns how many Acquire calls were refused.
func (cl *ConnLimiter) Rejected() uint64 {
	return cl.rejected.Load()
}

// loopbackOrigins are the browser origins allowed without a port.
var loopbackOrigins = []string{
	"http://localhost",
	"http://127.0.0.1",
	"http://[::1]",
}

// IsAllowedOrigin reports whether a browser origin is a local page.
func IsAllowedOrigin(origin string) bool {
	for _, base := range loopbackOrigins {
		if origin == base || strings.HasPrefix(origin, base+":") {
			return true
		}
	}
	return false
}
