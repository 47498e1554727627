package vfx

import (
	"errors"
	"image/color"
	"testing"
)

// TestNewPaletteRejectsEmpty tests that a palette needs at least one color
func TestNewPaletteRejectsEmpty(t *testing.T) {
	_, err := NewPalette("empty")
	if !errors.Is(err, ErrEmptyPalette) {
		t.Errorf("Expected ErrEmptyPalette, got %v", err)
	}
}

// TestNewPaletteCopies tests that callers can't mutate a palette after construction
func TestNewPaletteCopies(t *testing.T) {
	colors := []color.NRGBA{black, red}
	p, err := NewPalette("copy", colors...)
	if err != nil {
		t.Fatalf("NewPalette failed: %v", err)
	}

	colors[0] = gold
	if p.Color(0) != black {
		t.Error("Palette should not alias the caller's slice")
	}

	out := p.Colors()
	out[1] = gold
	if p.Color(1) != red {
		t.Error("Colors() should return a copy")
	}
}

// TestThemeRegistry tests the built-in themes
func TestThemeRegistry(t *testing.T) {
	names := Themes()
	if len(names) < 5 {
		t.Fatalf("Expected at least 5 themes, got %v", names)
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("Themes() not sorted: %v", names)
		}
	}

	for _, name := range names {
		p, err := Theme(name)
		if err != nil {
			t.Fatalf("Theme(%q) failed: %v", name, err)
		}
		if p.Len() != DynamicLevels {
			t.Errorf("Theme %q has %d entries, want %d", name, p.Len(), DynamicLevels)
		}
		if p.Name() != name {
			t.Errorf("Theme %q reports name %q", name, p.Name())
		}
	}

	if _, err := Theme(DefaultTheme); err != nil {
		t.Errorf("Default theme missing: %v", err)
	}
}

// TestThemeUnknown tests the unknown theme error
func TestThemeUnknown(t *testing.T) {
	_, err := Theme("daylight")
	if !errors.Is(err, ErrUnknownTheme) {
		t.Errorf("Expected ErrUnknownTheme, got %v", err)
	}
}

// TestThemeDarkToBright tests that themes run from pianissimo (dark) to sforzando (bright)
func TestThemeDarkToBright(t *testing.T) {
	luma := func(c color.NRGBA) int { return int(c.R)*299 + int(c.G)*587 + int(c.B)*114 }

	for _, name := range Themes() {
		p := MustTheme(name)
		for d := Piano; d <= Sforzando; d++ {
			if luma(p.At(d)) <= luma(p.At(d-1)) {
				t.Errorf("%s: %v is not brighter than %v", name, d, d-1)
			}
		}
	}
}

// TestPaletteAtShortRamp tests dynamic lookups on palettes of other lengths
func TestPaletteAtShortRamp(t *testing.T) {
	p := mustPalette(t, black, gold)

	if p.At(Pianissimo) != black {
		t.Errorf("pp = %v, want black", p.At(Pianissimo))
	}
	if p.At(Sforzando) != gold {
		t.Errorf("sfz = %v, want gold", p.At(Sforzando))
	}
}

// TestPaletteColorClamps tests index clamping
func TestPaletteColorClamps(t *testing.T) {
	p := mustPalette(t, black, red, gold)

	if p.Color(-3) != black || p.Color(99) != gold {
		t.Error("Color should clamp out-of-range indices")
	}
}

// TestDynamicString tests dynamic level names
func TestDynamicString(t *testing.T) {
	if Pianissimo.String() != "pp" || Sforzando.String() != "sfz" {
		t.Errorf("Unexpected names: %s %s", Pianissimo, Sforzando)
	}
}
