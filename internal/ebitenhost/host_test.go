package ebitenhost

import (
	"image/color"
	"math"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"

	"lunar-vfx/internal/config"
	"lunar-vfx/internal/vfx"
)

// TestBlendFor tests the blend mode mapping
func TestBlendFor(t *testing.T) {
	tests := []struct {
		mode vfx.BlendMode
		want ebiten.Blend
	}{
		{vfx.BlendAlpha, ebiten.BlendSourceOver},
		{vfx.BlendAdditive, ebiten.BlendLighter},
		{vfx.BlendOpaque, ebiten.BlendCopy},
	}
	for _, tt := range tests {
		if got := blendFor(tt.mode); got != tt.want {
			t.Errorf("blendFor(%v) = %+v, want %+v", tt.mode, got, tt.want)
		}
	}
}

// TestSpriteGeoM tests that sprites are centered on their position
func TestSpriteGeoM(t *testing.T) {
	g := spriteGeoM(64, 64, vfx.V(100, 50), math.Pi/2, 2)

	// Texture center lands on pos regardless of rotation and scale
	x, y := g.Apply(32, 32)
	if math.Abs(x-100) > 1e-9 || math.Abs(y-50) > 1e-9 {
		t.Errorf("center -> (%v,%v), want (100,50)", x, y)
	}

	// Top-left corner is 64px away after a 2x scale
	x, y = g.Apply(0, 0)
	if d := math.Hypot(x-100, y-50); math.Abs(d-64*math.Sqrt2) > 1e-9 {
		t.Errorf("corner distance = %v, want %v", d, 64*math.Sqrt2)
	}
}

// TestLightTint tests intensity to tint conversion
func TestLightTint(t *testing.T) {
	got := lightTint(1, 0.5, 4)
	want := color.NRGBA{128, 64, 255, 255}
	if got != want {
		t.Errorf("lightTint = %v, want %v", got, want)
	}
	if lightTint(-1, 0, 0) != (color.NRGBA{0, 0, 0, 255}) {
		t.Error("Negative intensity should clamp to 0")
	}
}

// TestOptionsFromConfig tests config mapping
func TestOptionsFromConfig(t *testing.T) {
	cfg := config.AppConfig{
		Canvas: config.DefaultCanvas(),
		Bloom:  config.DefaultBloom(),
		Limits: config.DefaultLimits(),
	}
	opts := OptionsFromConfig(cfg)
	if opts.Width != 640 || opts.Height != 360 || opts.GlowSize != 64 || opts.MaxLights != 64 {
		t.Errorf("Unexpected options %+v", opts)
	}
}
