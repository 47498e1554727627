package render

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"lunar-vfx/internal/vfx"
)

func testCanvas() *Canvas {
	return NewCanvas(CanvasOptions{Width: 120, Height: 80, MaxParticles: 500, MaxLights: 4, Stars: -1})
}

// TestNewGlow tests the generated glow sprite
func TestNewGlow(t *testing.T) {
	g := NewGlow(32)

	if w, h := g.Size(); w != 32 || h != 32 {
		t.Errorf("Size = %dx%d, want 32x32", w, h)
	}
	if g.AlphaAt(16, 16) < 200 {
		t.Errorf("Center alpha = %d, want nearly opaque", g.AlphaAt(16, 16))
	}
	if g.AlphaAt(0, 0) != 0 {
		t.Errorf("Corner alpha = %d, want 0", g.AlphaAt(0, 0))
	}
	if g.AlphaAt(16, 4) >= g.AlphaAt(16, 12) {
		t.Error("Alpha should fall off toward the edge")
	}
	if g.AlphaAt(-1, 5) != 0 || g.AlphaAt(5, 32) != 0 {
		t.Error("Out-of-range lookups should be 0")
	}
}

// TestCanvasImplementsHost tests the host contract through a preset
func TestCanvasImplementsHost(t *testing.T) {
	c := testCanvas()
	before := c.Pixel(60, 40)

	comp := vfx.NewComposer(c, vfx.ComposerOptions{})
	comp.MeleeImpact(vfx.MustStyle("eternal-moon"), vfx.Invocation{Position: vfx.V(60, 40)})

	if c.BlendMode() != vfx.BlendAlpha {
		t.Errorf("blend after preset = %v", c.BlendMode())
	}
	if c.Particles().Len() == 0 {
		t.Error("Preset should spawn dust into the pool")
	}
	if kept, _ := c.Lights(); kept != 1 {
		t.Errorf("Expected 1 light, got %d", kept)
	}

	after := c.Pixel(60, 40)
	if after.R <= before.R && after.G <= before.G && after.B <= before.B {
		t.Errorf("Bloom should brighten the impact point: %v -> %v", before, after)
	}
}

// TestCanvasMissingGlow tests that bloom without a texture leaves pixels alone
func TestCanvasMissingGlow(t *testing.T) {
	c := testCanvas()
	c.UnloadGlow()
	if c.GlowTexture() != nil {
		t.Fatal("GlowTexture should be a nil interface when unloaded")
	}

	before := append([]byte(nil), c.Pixels()...)
	vfx.DrawBloom(c, vfx.V(60, 40), vfx.MustStyle("resurrection").Bloom, 1, 1)

	if !bytes.Equal(before, c.Pixels()) {
		t.Error("Bloom without a glow texture should not draw")
	}
}

// TestCanvasLightCap tests MaxLights per frame
func TestCanvasLightCap(t *testing.T) {
	c := testCanvas()

	for i := 0; i < 7; i++ {
		c.AddLight(vfx.V(10, 10), 1, 1, 1)
	}
	if kept, dropped := c.Lights(); kept != 4 || dropped != 3 {
		t.Errorf("Lights = %d kept, %d dropped; want 4, 3", kept, dropped)
	}

	c.BeginFrame()
	if kept, dropped := c.Lights(); kept != 0 || dropped != 0 {
		t.Error("BeginFrame should reset lights")
	}
}

// TestCanvasFrameLifecycle tests backdrop restore, dust compositing and the clock
func TestCanvasFrameLifecycle(t *testing.T) {
	c := testCanvas()
	bg := c.Pixel(5, 5)

	c.SpawnDust(vfx.Dust{Pos: vfx.V(5, 5), Kind: vfx.DustMote, Color: color.NRGBA{255, 255, 255, 255}, Scale: 2})
	c.EndFrame()
	if c.Pixel(5, 5) == bg {
		t.Error("EndFrame should composite dust")
	}

	c.Advance(0.5)
	if c.Time() != 0.5 {
		t.Errorf("Time = %v, want 0.5", c.Time())
	}

	c.BeginFrame()
	if c.Pixel(5, 5) != bg {
		t.Error("BeginFrame should restore the backdrop")
	}

	c.Reset()
	if c.Time() != 0 || c.Particles().Len() != 0 {
		t.Error("Reset should rewind the clock and clear dust")
	}
}

// TestCanvasDrawsNotes tests vector music notes
func TestCanvasDrawsNotes(t *testing.T) {
	c := testCanvas()
	bg := c.Pixel(40, 40)

	c.SpawnDust(vfx.Dust{Pos: vfx.V(40, 40), Kind: vfx.DustMusicNote, Color: color.NRGBA{255, 240, 200, 255}, Scale: 2})
	c.EndFrame()

	if c.Pixel(40, 40) == bg {
		t.Error("Note head should be drawn")
	}
}

// TestCanvasEncodePNG tests PNG output
func TestCanvasEncodePNG(t *testing.T) {
	c := testCanvas()

	var buf bytes.Buffer
	if err := c.EncodePNG(&buf); err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("Output is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 120 || b.Dy() != 80 {
		t.Errorf("PNG is %dx%d, want 120x80", b.Dx(), b.Dy())
	}
}

// TestCanvasDefaults tests zero options
func TestCanvasDefaults(t *testing.T) {
	c := NewCanvas(CanvasOptions{})

	if c.Width() != 640 || c.Height() != 360 {
		t.Errorf("Default size = %dx%d", c.Width(), c.Height())
	}
	if c.Particles().Cap() != 2000 {
		t.Errorf("Default pool capacity = %d", c.Particles().Cap())
	}

	want := vfx.MustTheme(vfx.DefaultTheme).At(vfx.Pianissimo)
	// Stars are sparse, so most of the frame is the clear color
	matches := 0
	for x := 0; x < 640; x += 7 {
		if p := c.Pixel(x, 180); p.R == want.R && p.G == want.G && p.B == want.B {
			matches++
		}
	}
	if matches < 80 {
		t.Errorf("Only %d sampled pixels match the background", matches)
	}
}
