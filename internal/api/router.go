package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"lunar-vfx/internal/config"
	"lunar-vfx/internal/render"
	"lunar-vfx/internal/vfx"
)

// RouterConfig carries everything NewRouter needs. Zero fields fall back to
// defaults, so tests only set what they exercise:
//
//	router := api.NewRouter(api.RouterConfig{
//	    Config:          cfg,
//	    DisableLogging:  true,
//	    RateLimitConfig: &api.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
//	})
type RouterConfig struct {
	// Config supplies canvas size, bloom pulse and frame limits.
	Config config.AppConfig

	// RateLimiter guards every route. If nil, one is built from
	// RateLimitConfig, or DefaultRateLimitConfig when that is nil too.
	RateLimiter     *IPRateLimiter
	RateLimitConfig *RateLimitConfig

	// RenderLimiter additionally guards POST /api/render.
	// If nil, one is built from Config.Server.
	RenderLimiter *IPRateLimiter

	// CORSOrigins defaults to loopback pages on any port.
	CORSOrigins []string

	DisableLogging bool

	// Workers rasterizes preview frames in parallel when set and running.
	Workers *render.RenderWorkerPool

	// Observer receives composer bookkeeping. Defaults to MetricsObserver.
	Observer vfx.Observer

	// Previews caches encoded render responses. If nil, a default-sized
	// cache is created.
	Previews *PreviewCache
}

// routerHandlers binds route handlers to their shared state.
type routerHandlers struct {
	cfg      config.AppConfig
	workers  *render.RenderWorkerPool
	observer vfx.Observer
	previews *PreviewCache
}

// NewRouter builds the preview API. It starts no goroutines and opens no
// listeners; limiter cleanup and the frame stream belong to Server.Start.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Logger and Recoverer wrap everything; metrics sees the final status
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	// Budgets are checked before CORS so rejected requests stay cheap
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	renderLimiter := cfg.RenderLimiter
	if renderLimiter == nil {
		renderLimiter = NewIPRateLimiter(RenderLimitConfig(serverConfig(cfg.Config)))
	}

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{"http://localhost:*", "http://127.0.0.1:*", "http://[::1]:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Retry-After", "X-Preview-Cache"},
		MaxAge:         300,
	}))

	observer := cfg.Observer
	if observer == nil {
		observer = MetricsObserver{}
	}

	previews := cfg.Previews
	if previews == nil {
		previews = NewPreviewCache(DefaultMaxPreviews, PreviewTTL)
	}

	// Create handlers struct
	h := &routerHandlers{
		cfg:      withDefaults(cfg.Config),
		workers:  cfg.Workers,
		observer: observer,
		previews: previews,
	}

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Palettes and gradients
		r.Get("/palettes", h.handleGetPalettes)
		r.Get("/palettes/{theme}/sample", h.handleSamplePalette)

		// Effect catalog
		r.Get("/styles", h.handleGetStyles)
		r.Get("/presets", h.handleGetPresets)
		r.Get("/scenes", h.handleGetScenes)
		r.Get("/emission/{style}", h.handleGetEmission)
		r.Get("/config", h.handleGetConfig)

		// Previews
		r.Post("/plan", h.handlePlan)
		r.With(renderLimiter.Middleware).Post("/render", h.handleRender)

		// Request schemas
		r.Get("/schema/{name}", h.handleSchema)
	})

	r.Get("/health", h.handleHealth)

	return r
}

// serverConfig falls back to defaults for a zero ServerConfig so tests can
// pass a bare AppConfig.
func serverConfig(cfg config.AppConfig) config.ServerConfig {
	if cfg.Server.RendersPerSecond <= 0 {
		return config.DefaultServer()
	}
	return cfg.Server
}

// withDefaults fills zero sections of cfg.
func withDefaults(cfg config.AppConfig) config.AppConfig {
	if cfg.Canvas.Width <= 0 || cfg.Canvas.Height <= 0 || cfg.Canvas.FPS <= 0 {
		cfg.Canvas = config.DefaultCanvas()
	}
	if cfg.Bloom.GlowSize <= 0 {
		cfg.Bloom = config.DefaultBloom()
	}
	if cfg.Limits.MaxFrames <= 0 || cfg.Limits.MaxParticles <= 0 {
		cfg.Limits = config.DefaultLimits()
	}
	cfg.Server = serverConfig(cfg)
	return cfg
}
