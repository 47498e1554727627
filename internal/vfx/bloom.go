package vfx

import (
	"image/color"
	"math"
)

// BloomLayer is one additive copy of the glow sprite.
type BloomLayer struct {
	Color   color.NRGBA `json:"color"`
	Scale   float64     `json:"scale"`
	Opacity float64     `json:"opacity"`
}

// Pulse is the shared "breathing" oscillation applied to every layer of a call.
type Pulse struct {
	Amplitude float64
	Frequency float64 // radians per second
}

var DefaultPulse = Pulse{Amplitude: 0.08, Frequency: 4}

// At returns the scale multiplier at time t.
func (p Pulse) At(t float64) float64 {
	return 1 + p.Amplitude*math.Sin(t*p.Frequency)
}

// DrawBloom draws layers (outer to inner) at pos with DefaultPulse.
// It reports whether the glow texture was available.
func DrawBloom(h Host, pos Vec2, layers []BloomLayer, baseScale, opacity float64) bool {
	return DrawBloomPulse(h, pos, layers, baseScale, opacity, DefaultPulse)
}

// DrawBloomPulse draws one additive sprite per layer with
// scale = baseScale * layer.Scale * pulse and alpha = opacity * layer.Opacity.
//
// The host's blend mode is switched to additive for the duration of the call
// and restored on every exit path. Without a glow texture nothing is drawn,
// the blend mode is never touched, and false is returned.
func DrawBloomPulse(h Host, pos Vec2, layers []BloomLayer, baseScale, opacity float64, pulse Pulse) bool {
	tex := h.GlowTexture()
	if tex == nil {
		return false
	}
	if len(layers) == 0 || baseScale <= 0 {
		return true
	}

	prev := h.BlendMode()
	h.SetBlendMode(BlendAdditive)
	defer h.SetBlendMode(prev)

	p := pulse.At(h.Time())
	opacity = Clamp01(opacity)
	for _, l := range layers {
		alpha := Clamp01(opacity * l.Opacity)
		scale := baseScale * l.Scale * p
		if alpha == 0 || scale <= 0 {
			continue
		}
		h.Draw(tex, pos, WithOpacity(l.Color, alpha), 0, scale)
	}
	return true
}

// PaletteLayers builds n layers from a palette. Outer layers are darker,
// wider and fainter; the innermost is the palette's hot end.
func PaletteLayers(p *Palette, n int) []BloomLayer {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []BloomLayer{{Color: Evaluate(p, 1), Scale: 1, Opacity: 0.9}}
	}

	layers := make([]BloomLayer, n)
	for i := range layers {
		frac := float64(i) / float64(n-1)
		layers[i] = BloomLayer{
			Color:   Evaluate(p, 0.4+0.6*frac),
			Scale:   1.6 - frac,
			Opacity: 0.35 + 0.55*frac,
		}
	}
	return layers
}
