package vfx

import (
	"image/color"
	"math"
)

// Evaluate maps progress t to a color by piecewise-linear interpolation
// between adjacent palette entries. t is clamped to [0,1] first.
//
// Evaluate(p, 0) is p[0] and Evaluate(p, 1) is p[last] exactly. A
// single-entry palette returns that entry for any t, and a nil or empty
// palette returns transparent black.
func Evaluate(p *Palette, t float64) color.NRGBA {
	if p.Len() == 0 {
		return color.NRGBA{}
	}
	return evaluateColors(p.colors, t)
}

func evaluateColors(colors []color.NRGBA, t float64) color.NRGBA {
	n := len(colors)
	if n == 1 {
		return colors[0]
	}

	scaled := Clamp01(t) * float64(n-1)
	lo := int(math.Floor(scaled))
	if lo >= n-1 {
		return colors[n-1]
	}
	hi := lo + 1

	return LerpColor(colors[lo], colors[hi], scaled-float64(lo))
}

// Sample returns n evenly spaced gradient colors from t=0 to t=1.
func Sample(p *Palette, n int) []color.NRGBA {
	if n <= 0 {
		return nil
	}
	out := make([]color.NRGBA, n)
	if n == 1 {
		out[0] = Evaluate(p, 0)
		return out
	}
	for i := range out {
		out[i] = Evaluate(p, float64(i)/float64(n-1))
	}
	return out
}
