package vfx

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var ErrUnknownStyle = errors.New("unknown style")

// Style is one weapon's visual identity: the constants presets are
// instantiated with.
type Style struct {
	Name    string
	Palette *Palette
	Bloom   []BloomLayer

	// BloomScale is the base glow scale at step 0.
	BloomScale float64

	// Impact drives bursts and rings; Trail drives per-frame shedding.
	Impact EmissionProfile
	Trail  EmissionProfile

	Spark DustKind
	Mote  DustKind

	// Light is the intensity of the style's lighting contribution.
	Light float64
}

var (
	stylesOnce sync.Once
	styles     map[string]Style
	styleNames []string
)

func loadStyles() {
	defs := []Style{
		{
			Name:       "eternal-moon",
			Palette:    MustTheme("eternal-moon"),
			BloomScale: 1.2,
			Impact: EmissionProfile{
				BaseCount: 8, CountPerStep: 4, MaxCount: 48,
				BaseSpeed: 180, SpeedRamp: 0.15, MaxSpeed: 450,
				BaseScale: 1, ScaleRamp: 0.1, MaxScale: 1.8,
			},
			Trail: EmissionProfile{
				BaseCount: 2, CountPerStep: 1, MaxCount: 6,
				BaseSpeed: 60, SpeedRamp: 0.1, MaxSpeed: 120,
				BaseScale: 0.8, ScaleRamp: 0.05, MaxScale: 1.2,
			},
			Spark: DustSpark,
			Mote:  DustMote,
			Light: 0.9,
		},
		{
			Name:       "incisor-of-moonlight",
			Palette:    MustTheme("incisor"),
			BloomScale: 0.9,
			Impact: EmissionProfile{
				BaseCount: 6, CountPerStep: 3, MaxCount: 36,
				BaseSpeed: 240, SpeedRamp: 0.2, MaxSpeed: 540,
				BaseScale: 0.8, ScaleRamp: 0.08, MaxScale: 1.4,
			},
			Trail: EmissionProfile{
				BaseCount: 3, CountPerStep: 1, MaxCount: 8,
				BaseSpeed: 90, SpeedRamp: 0.1, MaxSpeed: 180,
				BaseScale: 0.6, ScaleRamp: 0.05, MaxScale: 1,
			},
			Spark: DustShard,
			Mote:  DustMote,
			Light: 0.8,
		},
		{
			Name:       "moonlights-calling",
			Palette:    MustTheme("moonlights-calling"),
			BloomScale: 1.0,
			Impact: EmissionProfile{
				BaseCount: 10, CountPerStep: 2, MaxCount: 30,
				BaseSpeed: 150, SpeedRamp: 0.12, MaxSpeed: 300,
				BaseScale: 1, ScaleRamp: 0.1, MaxScale: 1.6,
			},
			Trail: EmissionProfile{
				BaseCount: 2, CountPerStep: 1, MaxCount: 5,
				BaseSpeed: 40, SpeedRamp: 0.1, MaxSpeed: 80,
				BaseScale: 0.9, ScaleRamp: 0.05, MaxScale: 1.3,
			},
			Spark: DustMote,
			Mote:  DustMote,
			Light: 0.7,
		},
		{
			Name:       "resurrection",
			Palette:    MustTheme("resurrection"),
			BloomScale: 1.4,
			Impact: EmissionProfile{
				BaseCount: 12, CountPerStep: 5, MaxCount: 60,
				BaseSpeed: 300, SpeedRamp: 0.25, MaxSpeed: 720,
				BaseScale: 1.2, ScaleRamp: 0.12, MaxScale: 2.2,
			},
			Trail: EmissionProfile{
				BaseCount: 3, CountPerStep: 2, MaxCount: 10,
				BaseSpeed: 120, SpeedRamp: 0.15, MaxSpeed: 260,
				BaseScale: 0.9, ScaleRamp: 0.05, MaxScale: 1.4,
			},
			Spark: DustSpark,
			Mote:  DustShard,
			Light: 1.2,
		},
	}

	styles = make(map[string]Style, len(defs))
	for _, s := range defs {
		s.Bloom = PaletteLayers(s.Palette, 3)
		styles[s.Name] = s
		styleNames = append(styleNames, s.Name)
	}
	sort.Strings(styleNames)
}

// LookupStyle returns the registered style for name. The returned value
// shares its palette and layer slice with the registry; treat both as read-only.
func LookupStyle(name string) (Style, error) {
	stylesOnce.Do(loadStyles)
	s, ok := styles[name]
	if !ok {
		return Style{}, fmt.Errorf("%w: %q", ErrUnknownStyle, name)
	}
	return s, nil
}

// MustStyle is LookupStyle for names known at compile time.
func MustStyle(name string) Style {
	s, err := LookupStyle(name)
	if err != nil {
		panic(err)
	}
	return s
}

// StyleNames returns the registered style names in sorted order.
func StyleNames() []string {
	stylesOnce.Do(loadStyles)
	out := make([]string, len(styleNames))
	copy(out, styleNames)
	return out
}
