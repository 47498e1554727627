package vfx

import (
	"errors"
	"fmt"
	"image/color"
	"sort"
	"sync"
)

var (
	ErrEmptyPalette = errors.New("palette needs at least one color")
	ErrUnknownTheme = errors.New("unknown palette theme")
)

// Dynamic names a palette level, from the darkest/coolest to the brightest/hottest.
type Dynamic int

const (
	Pianissimo Dynamic = iota
	Piano
	MezzoPiano
	MezzoForte
	Forte
	Sforzando
)

// DynamicLevels is the length of every theme palette.
const DynamicLevels = 6

func (d Dynamic) String() string {
	switch d {
	case Pianissimo:
		return "pp"
	case Piano:
		return "p"
	case MezzoPiano:
		return "mp"
	case MezzoForte:
		return "mf"
	case Forte:
		return "f"
	case Sforzando:
		return "sfz"
	default:
		return fmt.Sprintf("dynamic(%d)", int(d))
	}
}

// Palette is an immutable ordered color ramp.
type Palette struct {
	name   string
	colors []color.NRGBA
}

// NewPalette copies colors into a new palette.
func NewPalette(name string, colors ...color.NRGBA) (*Palette, error) {
	if len(colors) == 0 {
		return nil, fmt.Errorf("palette %q: %w", name, ErrEmptyPalette)
	}
	c := make([]color.NRGBA, len(colors))
	copy(c, colors)
	return &Palette{name: name, colors: c}, nil
}

func (p *Palette) Name() string {
	return p.name
}

func (p *Palette) Len() int {
	if p == nil {
		return 0
	}
	return len(p.colors)
}

// Color returns entry i, clamping i into the valid index range.
func (p *Palette) Color(i int) color.NRGBA {
	if p.Len() == 0 {
		return color.NRGBA{}
	}
	if i < 0 {
		i = 0
	}
	if i >= len(p.colors) {
		i = len(p.colors) - 1
	}
	return p.colors[i]
}

// At returns the color for a dynamic level. Palettes that don't have exactly
// DynamicLevels entries are sampled through the gradient.
func (p *Palette) At(d Dynamic) color.NRGBA {
	if p.Len() == DynamicLevels {
		return p.Color(int(d))
	}
	return Evaluate(p, float64(d)/float64(DynamicLevels-1))
}

// Colors returns a copy of the palette entries.
func (p *Palette) Colors() []color.NRGBA {
	out := make([]color.NRGBA, p.Len())
	if p != nil {
		copy(out, p.colors)
	}
	return out
}

// DefaultTheme is used when a caller doesn't name one.
const DefaultTheme = "nocturne"

var themeTable = map[string][DynamicLevels]string{
	"nocturne":           {"#0b0720", "#1d1450", "#3b2a8f", "#6f5bd6", "#b9a8ff", "#f4f0ff"},
	"eternal-moon":       {"#080618", "#1f1147", "#45208a", "#8448d6", "#c89cff", "#fff3ff"},
	"incisor":            {"#050d1a", "#0f2a4a", "#1f5a8f", "#45a3d9", "#a6e4ff", "#f2fcff"},
	"moonlights-calling": {"#0c0a1c", "#2a1f5c", "#5a3fa6", "#9a7de0", "#d6c6ff", "#fffaf0"},
	"resurrection":       {"#120404", "#4a0c12", "#8f1a1a", "#d9482a", "#ffb347", "#fff2c4"},
}

var (
	themesOnce sync.Once
	themes     map[string]*Palette
	themeNames []string
)

func loadThemes() {
	themes = make(map[string]*Palette, len(themeTable))
	for name, hexes := range themeTable {
		colors := make([]color.NRGBA, 0, len(hexes))
		for _, h := range hexes {
			colors = append(colors, MustParseHex(h))
		}
		p, err := NewPalette(name, colors...)
		if err != nil {
			panic(err)
		}
		themes[name] = p
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)
}

// Theme returns the registered palette for name.
func Theme(name string) (*Palette, error) {
	themesOnce.Do(loadThemes)
	p, ok := themes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}
	return p, nil
}

// MustTheme is Theme for names known at compile time.
func MustTheme(name string) *Palette {
	p, err := Theme(name)
	if err != nil {
		panic(err)
	}
	return p
}

// Themes returns the registered theme names in sorted order.
func Themes() []string {
	themesOnce.Do(loadThemes)
	out := make([]string, len(themeNames))
	copy(out, themeNames)
	return out
}
