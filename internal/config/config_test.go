package config

import (
	"testing"
	"time"
)

// TestDefaults tests the built-in defaults without any environment overrides
func TestDefaults(t *testing.T) {
	cfg := DefaultCanvas()
	if cfg.Width != 640 || cfg.Height != 360 {
		t.Errorf("Expected 640x360 canvas, got %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.FPS != 30 {
		t.Errorf("Expected 30 FPS, got %d", cfg.FPS)
	}

	bloom := DefaultBloom()
	if bloom.PulseAmplitude != 0.08 {
		t.Errorf("Expected pulse amplitude 0.08, got %v", bloom.PulseAmplitude)
	}
	if bloom.GlowSize <= 0 {
		t.Error("Glow size must be positive")
	}
}

// TestEnvOverrides tests that environment variables take precedence
func TestEnvOverrides(t *testing.T) {
	t.Setenv("CANVAS_WIDTH", "1280")
	t.Setenv("CANVAS_FPS", "60")
	t.Setenv("BLOOM_PULSE_AMPLITUDE", "0")
	t.Setenv("MAX_PARTICLES", "50")
	t.Setenv("PORT", "8080")
	t.Setenv("STREAM_INTERVAL_MS", "250")

	cfg := Load()

	if cfg.Canvas.Width != 1280 {
		t.Errorf("Expected width 1280, got %d", cfg.Canvas.Width)
	}
	if cfg.Canvas.Height != 360 {
		t.Errorf("Height should keep its default, got %d", cfg.Canvas.Height)
	}
	if cfg.Canvas.FPS != 60 {
		t.Errorf("Expected 60 FPS, got %d", cfg.Canvas.FPS)
	}
	if cfg.Bloom.PulseAmplitude != 0 {
		t.Errorf("A zero amplitude override should disable the pulse, got %v", cfg.Bloom.PulseAmplitude)
	}
	if cfg.Limits.MaxParticles != 50 {
		t.Errorf("Expected 50 particles, got %d", cfg.Limits.MaxParticles)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.StreamInterval != 250*time.Millisecond {
		t.Errorf("Expected 250ms stream interval, got %v", cfg.Server.StreamInterval)
	}
}

// TestInvalidEnvIgnored tests that unparsable values fall back to defaults
func TestInvalidEnvIgnored(t *testing.T) {
	t.Setenv("CANVAS_HEIGHT", "tall")
	t.Setenv("BLOOM_PULSE_FREQUENCY", "fast")

	cfg := Load()

	if cfg.Canvas.Height != DefaultCanvas().Height {
		t.Errorf("Invalid height should be ignored, got %d", cfg.Canvas.Height)
	}
	if cfg.Bloom.PulseFrequency != DefaultBloom().PulseFrequency {
		t.Errorf("Invalid frequency should be ignored, got %v", cfg.Bloom.PulseFrequency)
	}
}
