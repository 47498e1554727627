package vfx

import (
	"math"
	"testing"
)

func testLayers() []BloomLayer {
	return PaletteLayers(MustTheme("eternal-moon"), 3)
}

// TestDrawBloomRestoresBlend tests that bloom draws additively and restores the previous mode
func TestDrawBloomRestoresBlend(t *testing.T) {
	for _, start := range []BlendMode{BlendAlpha, BlendOpaque} {
		rec := NewRecorder()
		rec.SetBlendMode(start)
		rec.Reset()

		if !DrawBloom(rec, V(10, 20), testLayers(), 2, 1) {
			t.Fatal("DrawBloom reported a missing texture")
		}

		if rec.BlendMode() != start {
			t.Errorf("blend after = %v, want %v", rec.BlendMode(), start)
		}
		if len(rec.Draws) != 3 {
			t.Fatalf("Expected 3 draws, got %d", len(rec.Draws))
		}
		for i, d := range rec.Draws {
			if d.Blend != BlendAdditive {
				t.Errorf("draw %d used %v blend", i, d.Blend)
			}
			if d.Pos != V(10, 20) {
				t.Errorf("draw %d at %v", i, d.Pos)
			}
		}
	}
}

// TestDrawBloomLayerMath tests scale and alpha for each layer at pulse phase 0
func TestDrawBloomLayerMath(t *testing.T) {
	rec := NewRecorder()
	layers := testLayers()

	DrawBloom(rec, V(0, 0), layers, 2, 0.5)

	for i, d := range rec.Draws {
		wantScale := 2 * layers[i].Scale
		if math.Abs(d.Scale-wantScale) > 1e-9 {
			t.Errorf("layer %d scale = %v, want %v", i, d.Scale, wantScale)
		}
		wantAlpha := uint8(math.Round(float64(layers[i].Color.A) * 0.5 * layers[i].Opacity))
		if d.Tint.A != wantAlpha {
			t.Errorf("layer %d alpha = %d, want %d", i, d.Tint.A, wantAlpha)
		}
		if d.Tint.R != layers[i].Color.R || d.Tint.G != layers[i].Color.G || d.Tint.B != layers[i].Color.B {
			t.Errorf("layer %d tint = %v, want color of %v", i, d.Tint, layers[i].Color)
		}
	}
}

// TestDrawBloomPulse tests the shared breathing multiplier
func TestDrawBloomPulse(t *testing.T) {
	rec := NewRecorder()
	rec.Clock = math.Pi / 8 // sin(4 * pi/8) = 1

	DrawBloom(rec, V(0, 0), []BloomLayer{{Color: gold, Scale: 1, Opacity: 1}}, 1, 1)

	if len(rec.Draws) != 1 {
		t.Fatalf("Expected 1 draw, got %d", len(rec.Draws))
	}
	if math.Abs(rec.Draws[0].Scale-1.08) > 1e-9 {
		t.Errorf("pulsed scale = %v, want 1.08", rec.Draws[0].Scale)
	}

	rec.Reset()
	DrawBloomPulse(rec, V(0, 0), []BloomLayer{{Color: gold, Scale: 1, Opacity: 1}}, 1, 1, Pulse{})
	if rec.Draws[0].Scale != 1 {
		t.Errorf("zero pulse scale = %v, want 1", rec.Draws[0].Scale)
	}
}

// TestDrawBloomMissingTexture tests that an unloaded glow is a silent no-op
func TestDrawBloomMissingTexture(t *testing.T) {
	rec := NewRecorder()
	rec.Texture = nil

	if DrawBloom(rec, V(5, 5), testLayers(), 1, 1) {
		t.Error("DrawBloom should report the missing texture")
	}
	if len(rec.Draws) != 0 || len(rec.BlendChanges) != 0 {
		t.Errorf("Expected no draws or blend changes, got %d draws and %v", len(rec.Draws), rec.BlendChanges)
	}
}

// TestDrawBloomDegenerateInputs tests empty layers, zero scale and zero opacity
func TestDrawBloomDegenerateInputs(t *testing.T) {
	rec := NewRecorder()

	DrawBloom(rec, V(0, 0), nil, 1, 1)
	DrawBloom(rec, V(0, 0), testLayers(), 0, 1)
	DrawBloom(rec, V(0, 0), testLayers(), -3, 1)
	if len(rec.BlendChanges) != 0 {
		t.Errorf("Expected no blend changes, got %v", rec.BlendChanges)
	}

	DrawBloom(rec, V(0, 0), testLayers(), 1, 0)
	if len(rec.Draws) != 0 {
		t.Errorf("zero opacity drew %d sprites", len(rec.Draws))
	}
	if rec.BlendMode() != BlendAlpha {
		t.Errorf("blend after = %v", rec.BlendMode())
	}
}

// TestDrawBloomHostPanicRestoresBlend tests blend restoration when the host panics mid-draw
func TestDrawBloomHostPanicRestoresBlend(t *testing.T) {
	rec := NewRecorder()
	rec.FailWith = "gpu lost"

	func() {
		defer func() { _ = recover() }()
		DrawBloom(rec, V(0, 0), testLayers(), 1, 1)
	}()

	if rec.BlendMode() != BlendAlpha {
		t.Errorf("blend after panic = %v, want alpha", rec.BlendMode())
	}
}

// TestPaletteLayers tests outer-to-inner layer ordering
func TestPaletteLayers(t *testing.T) {
	p := MustTheme("resurrection")
	layers := PaletteLayers(p, 4)

	if len(layers) != 4 {
		t.Fatalf("Expected 4 layers, got %d", len(layers))
	}
	for i := 1; i < len(layers); i++ {
		if layers[i].Scale >= layers[i-1].Scale {
			t.Errorf("layer %d is not smaller than layer %d", i, i-1)
		}
		if layers[i].Opacity <= layers[i-1].Opacity {
			t.Errorf("layer %d is not more opaque than layer %d", i, i-1)
		}
	}
	if layers[3].Color != Evaluate(p, 1) {
		t.Errorf("inner layer = %v, want palette end", layers[3].Color)
	}

	if got := PaletteLayers(p, 1); len(got) != 1 || got[0].Color != Evaluate(p, 1) {
		t.Errorf("PaletteLayers(1) = %v", got)
	}
	if PaletteLayers(p, 0) != nil {
		t.Error("PaletteLayers(0) should be nil")
	}
}
