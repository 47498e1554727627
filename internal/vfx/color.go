package vfx

import (
	"fmt"
	"image/color"
	"math"
)

// ParseHex parses a "#rrggbb" or "#rrggbbaa" color.
func ParseHex(hex string) (color.NRGBA, error) {
	if (len(hex) != 7 && len(hex) != 9) || hex[0] != '#' {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q", hex)
	}

	var ch [4]uint8
	ch[3] = 255
	for i := 0; i < (len(hex)-1)/2; i++ {
		hi, ok1 := hexNibble(hex[1+i*2])
		lo, ok2 := hexNibble(hex[2+i*2])
		if !ok1 || !ok2 {
			return color.NRGBA{}, fmt.Errorf("invalid hex color %q", hex)
		}
		ch[i] = hi<<4 | lo
	}
	return color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}, nil
}

// MustParseHex is ParseHex for compile-time palette tables.
func MustParseHex(hex string) color.NRGBA {
	c, err := ParseHex(hex)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex formats c as "#rrggbb", appending alpha only when it isn't opaque.
func Hex(c color.NRGBA) string {
	if c.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

func hexNibble(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}

// LerpColor blends a toward b channel-wise (alpha included). w is clamped to [0,1].
func LerpColor(a, b color.NRGBA, w float64) color.NRGBA {
	w = Clamp01(w)
	return color.NRGBA{
		R: lerpChannel(a.R, b.R, w),
		G: lerpChannel(a.G, b.G, w),
		B: lerpChannel(a.B, b.B, w),
		A: lerpChannel(a.A, b.A, w),
	}
}

// lerpChannel rounds to nearest, so the result never leaves [min(a,b), max(a,b)].
func lerpChannel(a, b uint8, w float64) uint8 {
	if w == 0 {
		return a
	}
	if w == 1 {
		return b
	}
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*w))
}

// WithOpacity scales c's alpha by opacity (clamped to [0,1]).
func WithOpacity(c color.NRGBA, opacity float64) color.NRGBA {
	c.A = uint8(math.Round(float64(c.A) * Clamp01(opacity)))
	return c
}

// Clamp01 clamps v to [0,1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 1 {
		return 1
	}
	return v
}
