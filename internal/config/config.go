// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for canvas, bloom and preview settings.
//
// IMPORTANT: When changing defaults, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"os"
	"strconv"
	"time"
)

// =============================================================================
// CANVAS CONFIGURATION
// =============================================================================

// CanvasConfig holds the software canvas settings shared by the preview
// server, the offline renderer and the viewer window.
type CanvasConfig struct {
	Width  int // Canvas width in pixels
	Height int // Canvas height in pixels
	FPS    int // Frames per second (scene clock and stream rate)
}

// DefaultCanvas returns the default canvas configuration.
func DefaultCanvas() CanvasConfig {
	return CanvasConfig{
		Width:  640,
		Height: 360,
		FPS:    30,
	}
}

// CanvasFromEnv returns canvas configuration with environment variable overrides.
func CanvasFromEnv() CanvasConfig {
	cfg := DefaultCanvas()

	if w := getEnvInt("CANVAS_WIDTH", 0); w > 0 {
		cfg.Width = w
	}
	if h := getEnvInt("CANVAS_HEIGHT", 0); h > 0 {
		cfg.Height = h
	}
	if fps := getEnvInt("CANVAS_FPS", 0); fps > 0 {
		cfg.FPS = fps
	}

	return cfg
}

// =============================================================================
// BLOOM CONFIGURATION
// =============================================================================

// BloomConfig controls the shared glow sprite and the bloom "breathing" pulse.
type BloomConfig struct {
	PulseAmplitude float64 // Scale oscillation amplitude (0.08 = +/-8%)
	PulseFrequency float64 // Oscillation frequency in radians per second
	GlowSize       int     // Glow texture edge length in pixels
}

// DefaultBloom returns the default bloom configuration.
func DefaultBloom() BloomConfig {
	return BloomConfig{
		PulseAmplitude: 0.08,
		PulseFrequency: 4.0,
		GlowSize:       64,
	}
}

// BloomFromEnv returns bloom configuration with environment variable overrides.
func BloomFromEnv() BloomConfig {
	cfg := DefaultBloom()

	if a := getEnvFloat("BLOOM_PULSE_AMPLITUDE", -1); a >= 0 {
		cfg.PulseAmplitude = a
	}
	if f := getEnvFloat("BLOOM_PULSE_FREQUENCY", -1); f >= 0 {
		cfg.PulseFrequency = f
	}
	if s := getEnvInt("BLOOM_GLOW_SIZE", 0); s > 0 {
		cfg.GlowSize = s
	}

	return cfg
}

// =============================================================================
// RESOURCE LIMITS
// =============================================================================

// ResourceLimits bounds per-frame work so a runaway scene can't stall a host.
type ResourceLimits struct {
	MaxParticles  int // Host-owned dust pool capacity
	MaxLights     int // Light contributions kept per frame
	MaxFrames     int // Longest scene a render request may ask for
	RenderWorkers int // Particle rasterization goroutines (0 = NumCPU)
}

// DefaultLimits returns the default resource limits.
func DefaultLimits() ResourceLimits {
	return ResourceLimits{
		MaxParticles:  2000,
		MaxLights:     64,
		MaxFrames:     600,
		RenderWorkers: 0,
	}
}

// LimitsFromEnv returns resource limits with environment variable overrides.
func LimitsFromEnv() ResourceLimits {
	cfg := DefaultLimits()

	if mp := getEnvInt("MAX_PARTICLES", 0); mp > 0 {
		cfg.MaxParticles = mp
	}
	if ml := getEnvInt("MAX_LIGHTS", 0); ml > 0 {
		cfg.MaxLights = ml
	}
	if w := getEnvInt("RENDER_WORKERS", 0); w > 0 {
		cfg.RenderWorkers = w
	}

	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds preview server settings.
type ServerConfig struct {
	Port              int
	RequestsPerSecond float64       // Per-IP budget for cheap endpoints
	Burst             int           // Per-IP burst for cheap endpoints
	RendersPerSecond  float64       // Per-IP budget for PNG rendering
	StreamInterval    time.Duration // Websocket frame cadence
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:              3000,
		RequestsPerSecond: 20,
		Burst:             40,
		RendersPerSecond:  2,
		StreamInterval:    100 * time.Millisecond,
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if rps := getEnvFloat("RATE_LIMIT_RPS", 0); rps > 0 {
		cfg.RequestsPerSecond = rps
	}
	if rps := getEnvFloat("RENDER_LIMIT_RPS", 0); rps > 0 {
		cfg.RendersPerSecond = rps
	}
	if ms := getEnvInt("STREAM_INTERVAL_MS", 0); ms > 0 {
		cfg.StreamInterval = time.Duration(ms) * time.Millisecond
	}

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Canvas CanvasConfig
	Bloom  BloomConfig
	Limits ResourceLimits
	Server ServerConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Canvas: CanvasFromEnv(),
		Bloom:  BloomFromEnv(),
		Limits: LimitsFromEnv(),
		Server: ServerFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
