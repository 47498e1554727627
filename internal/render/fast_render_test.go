package render

import (
	"image/color"
	"testing"

	"lunar-vfx/internal/vfx"
)

var opaqueBlack = color.NRGBA{0, 0, 0, 255}

// TestNewFastRenderer tests FastRenderer creation
func TestNewFastRenderer(t *testing.T) {
	width, height := 100, 100
	fr := NewFastRenderer(width, height, nil)

	if len(fr.GetBuffer()) != width*height*4 {
		t.Errorf("Buffer size should be %d, got %d", width*height*4, len(fr.GetBuffer()))
	}

	existing := make([]byte, 4*4*4)
	existing[0] = 255
	if NewFastRenderer(4, 4, existing).GetBuffer()[0] != 255 {
		t.Error("FastRenderer should use the provided buffer")
	}
}

// TestFastRendererClear tests Clear on the whole buffer and on a band
func TestFastRendererClear(t *testing.T) {
	fr := NewFastRenderer(10, 10, nil)
	fr.Clear(color.NRGBA{100, 150, 200, 255})

	if got := fr.pixel(0, 0); got != (color.NRGBA{100, 150, 200, 255}) {
		t.Errorf("First pixel = %v", got)
	}
	if got := fr.pixel(9, 9); got != (color.NRGBA{100, 150, 200, 255}) {
		t.Errorf("Last pixel = %v", got)
	}

	fr.Band(2, 4).Clear(opaqueBlack)
	if fr.pixel(5, 1) == opaqueBlack || fr.pixel(5, 4) == opaqueBlack {
		t.Error("Band clear leaked outside rows [2,4)")
	}
	if fr.pixel(5, 2) != opaqueBlack || fr.pixel(5, 3) != opaqueBlack {
		t.Error("Band clear missed its rows")
	}
}

// TestBlendModes tests alpha, additive and opaque compositing
func TestBlendModes(t *testing.T) {
	half := color.NRGBA{200, 100, 0, 128}

	cases := []struct {
		name string
		mode vfx.BlendMode
		dst  color.NRGBA
		want color.NRGBA
	}{
		{"alpha over black", vfx.BlendAlpha, opaqueBlack, color.NRGBA{100, 50, 0, 255}},
		{"additive on grey", vfx.BlendAdditive, color.NRGBA{100, 100, 100, 255}, color.NRGBA{200, 150, 100, 255}},
		{"additive saturates", vfx.BlendAdditive, color.NRGBA{250, 250, 250, 255}, color.NRGBA{255, 255, 250, 255}},
		{"opaque ignores alpha", vfx.BlendOpaque, opaqueBlack, color.NRGBA{200, 100, 0, 255}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fr := NewFastRenderer(1, 1, nil)
			fr.Clear(tc.dst)
			fr.blend(0, half, 1, tc.mode)

			got := fr.pixel(0, 0)
			for ch := 0; ch < 4; ch++ {
				g, w := int([4]uint8{got.R, got.G, got.B, got.A}[ch]), int([4]uint8{tc.want.R, tc.want.G, tc.want.B, tc.want.A}[ch])
				if g < w-1 || g > w+1 {
					t.Errorf("got %v, want %v", got, tc.want)
					break
				}
			}
		})
	}
}

// TestDrawFilledCircleClips tests that circles partially off-canvas don't panic
func TestDrawFilledCircleClips(t *testing.T) {
	fr := NewFastRenderer(20, 20, nil)
	fr.Clear(opaqueBlack)
	white := color.NRGBA{255, 255, 255, 255}

	fr.DrawFilledCircle(-5, -5, 8, white, vfx.BlendAlpha)
	fr.DrawFilledCircle(25, 25, 8, white, vfx.BlendAlpha)
	fr.DrawFilledCircle(10, 10, 3, white, vfx.BlendAlpha)

	if fr.pixel(10, 10) != white {
		t.Error("Circle center should be filled")
	}
	if fr.pixel(10, 16) != opaqueBlack {
		t.Error("Pixel outside radius should be untouched")
	}
	if fr.pixel(0, 0) != white {
		t.Error("Clipped circle should still cover the corner")
	}
}

// TestDrawSprite tests that a glow stamp is brightest at its center and scales
func TestDrawSprite(t *testing.T) {
	glow := NewGlow(32)
	fr := NewFastRenderer(64, 64, nil)
	fr.Clear(opaqueBlack)

	fr.DrawSprite(glow, 32, 32, color.NRGBA{255, 255, 255, 255}, 0, 1, vfx.BlendAdditive)

	center := fr.pixel(32, 32).R
	edge := fr.pixel(32+14, 32).R
	outside := fr.pixel(32+20, 32).R
	if center < 200 {
		t.Errorf("Center brightness = %d, want bright", center)
	}
	if edge >= center {
		t.Errorf("Edge %d should be dimmer than center %d", edge, center)
	}
	if outside != 0 {
		t.Errorf("Pixel beyond the sprite = %d, want 0", outside)
	}

	// Double scale reaches further out
	fr.Clear(opaqueBlack)
	fr.DrawSprite(glow, 32, 32, color.NRGBA{255, 255, 255, 255}, 0, 2, vfx.BlendAdditive)
	if fr.pixel(32+20, 32).R == 0 {
		t.Error("Scaled sprite should cover 20px from center")
	}
}

// TestDrawSpriteTransparentTint tests that zero-alpha draws are no-ops
func TestDrawSpriteTransparentTint(t *testing.T) {
	fr := NewFastRenderer(16, 16, nil)
	fr.Clear(opaqueBlack)

	fr.DrawSprite(NewGlow(16), 8, 8, color.NRGBA{255, 0, 0, 0}, 0, 1, vfx.BlendAdditive)
	fr.DrawSprite(nil, 8, 8, color.NRGBA{255, 0, 0, 255}, 0, 1, vfx.BlendAdditive)

	if fr.pixel(8, 8) != opaqueBlack {
		t.Errorf("pixel = %v, want untouched", fr.pixel(8, 8))
	}
}

// TestDrawRadialLight tests quadratic falloff
func TestDrawRadialLight(t *testing.T) {
	fr := NewFastRenderer(40, 40, nil)
	fr.Clear(opaqueBlack)

	fr.DrawRadialLight(20, 20, 10, 1, 0.5, 0)

	c := fr.pixel(20, 20)
	if c.R < 250 || c.G < 120 || c.G > 135 || c.B != 0 {
		t.Errorf("center = %v", c)
	}
	if fr.pixel(25, 20).R >= c.R {
		t.Error("light should fall off away from the center")
	}
	if fr.pixel(31, 20).R != 0 {
		t.Error("light should not reach past its radius")
	}
}
