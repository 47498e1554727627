package vfx

import "image/color"

// StaticTexture is a texture handle with a fixed size and no pixels.
type StaticTexture struct {
	W, H int
}

func (t StaticTexture) Size() (int, int) {
	return t.W, t.H
}

// DrawCommand is one recorded sprite draw.
type DrawCommand struct {
	Pos      Vec2        `json:"pos"`
	Tint     color.NRGBA `json:"tint"`
	Rotation float64     `json:"rotation"`
	Scale    float64     `json:"scale"`
	Blend    BlendMode   `json:"blend"`
}

// LightCommand is one recorded lighting contribution.
type LightCommand struct {
	Pos Vec2    `json:"pos"`
	R   float64 `json:"r"`
	G   float64 `json:"g"`
	B   float64 `json:"b"`
}

// Recorder is a Host that records every call instead of rendering. It turns a
// preset into a list of draw instructions, and is the fake host in tests.
type Recorder struct {
	// Texture is returned by GlowTexture. Leave nil to simulate an unloaded asset.
	Texture Texture `json:"-"`

	// Clock is returned by Time.
	Clock float64 `json:"-"`

	// FailWith, when non-nil, makes Draw panic with it.
	FailWith any `json:"-"`

	Draws        []DrawCommand  `json:"draws"`
	Dust         []Dust         `json:"dust"`
	Lights       []LightCommand `json:"lights"`
	BlendChanges []BlendMode    `json:"blendChanges"`

	blend BlendMode
}

// NewRecorder returns a recorder with a loaded 64x64 glow texture.
func NewRecorder() *Recorder {
	return &Recorder{Texture: StaticTexture{W: 64, H: 64}}
}

func (r *Recorder) BlendMode() BlendMode {
	return r.blend
}

func (r *Recorder) SetBlendMode(mode BlendMode) {
	r.blend = mode
	r.BlendChanges = append(r.BlendChanges, mode)
}

func (r *Recorder) Draw(_ Texture, pos Vec2, tint color.NRGBA, rotation, scale float64) {
	if r.FailWith != nil {
		panic(r.FailWith)
	}
	r.Draws = append(r.Draws, DrawCommand{Pos: pos, Tint: tint, Rotation: rotation, Scale: scale, Blend: r.blend})
}

func (r *Recorder) SpawnDust(d Dust) {
	r.Dust = append(r.Dust, d)
}

func (r *Recorder) AddLight(pos Vec2, red, green, blue float64) {
	r.Lights = append(r.Lights, LightCommand{Pos: pos, R: red, G: green, B: blue})
}

func (r *Recorder) GlowTexture() Texture {
	return r.Texture
}

func (r *Recorder) Time() float64 {
	return r.Clock
}

// Reset drops everything recorded but keeps the texture, clock and blend mode.
func (r *Recorder) Reset() {
	r.Draws = r.Draws[:0]
	r.Dust = r.Dust[:0]
	r.Lights = r.Lights[:0]
	r.BlendChanges = r.BlendChanges[:0]
}
