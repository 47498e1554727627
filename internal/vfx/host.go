// Package vfx composes palette gradients, additive bloom and intensity-scaled
// particle bursts into named effect presets.
//
// Everything here runs synchronously on the caller's goroutine and talks to
// the renderer only through Host. Drawing never returns errors: a missing
// glow texture turns bloom into a no-op and numeric inputs are clamped.
package vfx

import "image/color"

// BlendMode is the sprite batch compositing state.
type BlendMode uint8

const (
	BlendAlpha BlendMode = iota
	BlendAdditive
	BlendOpaque
)

func (m BlendMode) String() string {
	switch m {
	case BlendAlpha:
		return "alpha"
	case BlendAdditive:
		return "additive"
	case BlendOpaque:
		return "opaque"
	default:
		return "unknown"
	}
}

// MarshalText lets recorded commands serialize the mode by name.
func (m BlendMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Texture is a loaded sprite handle.
type Texture interface {
	Size() (w, h int)
}

// SpriteBatch is the host's immediate-mode sprite API. Draw's scale is
// relative to the texture's native size and the sprite is centered on pos.
type SpriteBatch interface {
	BlendMode() BlendMode
	SetBlendMode(mode BlendMode)
	Draw(tex Texture, pos Vec2, tint color.NRGBA, rotation, scale float64)
}

// DustKind selects the host's visual/physics behavior for a dust particle.
type DustKind uint8

const (
	DustSpark DustKind = iota
	DustMote
	DustShard
	DustMusicNote
)

func (k DustKind) String() string {
	switch k {
	case DustSpark:
		return "spark"
	case DustMote:
		return "mote"
	case DustShard:
		return "shard"
	case DustMusicNote:
		return "note"
	default:
		return "unknown"
	}
}

func (k DustKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Dust is one particle handed to the host's pool. The host owns its lifetime.
type Dust struct {
	Pos      Vec2        `json:"pos"`
	Kind     DustKind    `json:"kind"`
	Velocity Vec2        `json:"velocity"`
	Color    color.NRGBA `json:"color"`
	Scale    float64     `json:"scale"`
}

type DustSpawner interface {
	SpawnDust(d Dust)
}

// LightSink accumulates ambient light. Channels are intensities, 1.0 = full.
type LightSink interface {
	AddLight(pos Vec2, r, g, b float64)
}

// Host is everything a preset needs from the rendering runtime.
type Host interface {
	SpriteBatch
	DustSpawner
	LightSink

	// GlowTexture returns the shared soft-glow sprite, or nil while it is
	// not loaded.
	GlowTexture() Texture

	// Time is the host clock in seconds.
	Time() float64
}
