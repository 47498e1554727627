// Package ebitenhost runs the vfx presets on the GPU through ebiten. Additive
// bloom maps onto ebiten.BlendLighter; dust physics is shared with the
// software canvas.
package ebitenhost

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"lunar-vfx/internal/config"
	"lunar-vfx/internal/render"
	"lunar-vfx/internal/vfx"
)

// lightRadius matches the software canvas halo size.
const lightRadius = 110

// Texture wraps an ebiten image as a vfx texture handle.
type Texture struct {
	img *ebiten.Image
}

func (t *Texture) Size() (int, int) {
	b := t.img.Bounds()
	return b.Dx(), b.Dy()
}

// Options configures a Host. Zero values pick the defaults.
type Options struct {
	Width, Height int
	GlowSize      int
	MaxParticles  int
	MaxLights     int
	Background    color.NRGBA
}

// OptionsFromConfig maps application config onto host options.
func OptionsFromConfig(cfg config.AppConfig) Options {
	return Options{
		Width:        cfg.Canvas.Width,
		Height:       cfg.Canvas.Height,
		GlowSize:     cfg.Bloom.GlowSize,
		MaxParticles: cfg.Limits.MaxParticles,
		MaxLights:    cfg.Limits.MaxLights,
	}
}

type light struct {
	pos     vfx.Vec2
	r, g, b float64
}

// Host implements render.Surface on an offscreen ebiten image. Draw it to the
// screen with Present.
type Host struct {
	width, height int
	background    color.NRGBA

	target *ebiten.Image
	glow   *Texture // nil when unloaded

	blend     vfx.BlendMode
	clock     float64
	particles *render.ParticlePool

	lights    []light
	maxLights int
}

var _ render.Surface = (*Host)(nil)

// NewHost allocates the offscreen target and uploads the glow sprite.
func NewHost(opts Options) *Host {
	defaults := config.DefaultCanvas()
	limits := config.DefaultLimits()
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = defaults.Width, defaults.Height
	}
	if opts.GlowSize <= 0 {
		opts.GlowSize = config.DefaultBloom().GlowSize
	}
	if opts.MaxParticles <= 0 {
		opts.MaxParticles = limits.MaxParticles
	}
	if opts.MaxLights <= 0 {
		opts.MaxLights = limits.MaxLights
	}
	if opts.Background == (color.NRGBA{}) {
		opts.Background = vfx.MustTheme(vfx.DefaultTheme).At(vfx.Pianissimo)
	}

	glow := render.NewGlow(opts.GlowSize)
	return &Host{
		width:      opts.Width,
		height:     opts.Height,
		background: opts.Background,
		target:     ebiten.NewImage(opts.Width, opts.Height),
		glow:       &Texture{img: ebiten.NewImageFromImage(glow.Image())},
		particles:  render.NewParticlePool(opts.MaxParticles),
		lights:     make([]light, 0, opts.MaxLights),
		maxLights:  opts.MaxLights,
	}
}

func (h *Host) Width() int  { return h.width }
func (h *Host) Height() int { return h.height }

// BeginFrame clears the target and the per-frame light list.
func (h *Host) BeginFrame() {
	h.target.Fill(h.background)
	h.lights = h.lights[:0]
	h.blend = vfx.BlendAlpha
}

// EndFrame composites lights, then dust.
func (h *Host) EndFrame() {
	for _, l := range h.lights {
		h.drawLight(l)
	}
	for _, pt := range h.particles.Particles() {
		h.drawParticle(pt)
	}
}

// Advance integrates dust and moves the clock.
func (h *Host) Advance(dt float64) {
	h.particles.Update(dt)
	h.clock += dt
}

// Reset clears dust and rewinds the clock.
func (h *Host) Reset() {
	h.particles.Clear()
	h.lights = h.lights[:0]
	h.clock = 0
}

// UnloadGlow drops the glow texture; bloom becomes a no-op.
func (h *Host) UnloadGlow() {
	h.glow = nil
}

// Present draws the offscreen target onto screen, scaled to fit.
func (h *Host) Present(screen *ebiten.Image) {
	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(sw)/float64(h.width), float64(sh)/float64(h.height))
	screen.DrawImage(h.target, op)
}

func (h *Host) BlendMode() vfx.BlendMode {
	return h.blend
}

func (h *Host) SetBlendMode(mode vfx.BlendMode) {
	h.blend = mode
}

func (h *Host) Draw(tex vfx.Texture, pos vfx.Vec2, tint color.NRGBA, rotation, scale float64) {
	t, ok := tex.(*Texture)
	if !ok || t == nil || tint.A == 0 || scale <= 0 {
		return
	}
	h.drawSprite(t, pos, tint, rotation, scale, h.blend)
}

func (h *Host) drawSprite(t *Texture, pos vfx.Vec2, tint color.NRGBA, rotation, scale float64, mode vfx.BlendMode) {
	w, ht := t.Size()
	op := &ebiten.DrawImageOptions{
		GeoM:  spriteGeoM(w, ht, pos, rotation, scale),
		Blend: blendFor(mode),
	}
	op.ColorScale.ScaleWithColor(tint)
	h.target.DrawImage(t.img, op)
}

func (h *Host) SpawnDust(d vfx.Dust) {
	h.particles.Spawn(d)
}

// AddLight keeps at most MaxLights contributions per frame.
func (h *Host) AddLight(pos vfx.Vec2, r, g, b float64) {
	if len(h.lights) >= h.maxLights {
		return
	}
	h.lights = append(h.lights, light{pos: pos, r: r, g: g, b: b})
}

func (h *Host) GlowTexture() vfx.Texture {
	if h.glow == nil {
		return nil
	}
	return h.glow
}

func (h *Host) Time() float64 {
	return h.clock
}

// Particles exposes the dust pool.
func (h *Host) Particles() *render.ParticlePool {
	return h.particles
}

// drawLight stretches the glow sprite to the halo radius at half intensity.
func (h *Host) drawLight(l light) {
	if h.glow == nil {
		return
	}
	w, _ := h.glow.Size()
	tint := lightTint(l.r, l.g, l.b)
	h.drawSprite(h.glow, l.pos, tint, 0, 2*lightRadius/float64(w), vfx.BlendAdditive)
}

func (h *Host) drawParticle(pt render.Particle) {
	alpha := pt.Alpha()
	if alpha <= 0 {
		return
	}
	c := vfx.WithOpacity(pt.Color, alpha)
	r := pt.Radius()
	x, y := float32(pt.Pos.X), float32(pt.Pos.Y)

	switch pt.Kind {
	case vfx.DustMote:
		vector.DrawFilledCircle(h.target, x, y, float32(r), c, true)
	case vfx.DustShard:
		side := float32(math.Max(1, math.Round(r*1.4)))
		vector.DrawFilledRect(h.target, x-side/2, y-side/2, side, side, c, false)
	case vfx.DustMusicNote:
		head := float32(r)
		vector.DrawFilledCircle(h.target, x, y, head, c, true)
		vector.StrokeLine(h.target, x+head, y, x+head, y-head*3, 1.5, c, true)
	default:
		if h.glow == nil {
			vector.DrawFilledCircle(h.target, x, y, float32(r), c, true)
			return
		}
		w, _ := h.glow.Size()
		h.drawSprite(h.glow, pt.Pos, c, 0, 2*r/float64(w), vfx.BlendAdditive)
	}
}

// blendFor maps a vfx blend mode onto ebiten's compositing state.
func blendFor(mode vfx.BlendMode) ebiten.Blend {
	switch mode {
	case vfx.BlendAdditive:
		return ebiten.BlendLighter
	case vfx.BlendOpaque:
		return ebiten.BlendCopy
	default:
		return ebiten.BlendSourceOver
	}
}

// spriteGeoM centers a w x h sprite on pos, then rotates and scales it.
func spriteGeoM(w, h int, pos vfx.Vec2, rotation, scale float64) ebiten.GeoM {
	var g ebiten.GeoM
	g.Translate(-float64(w)/2, -float64(h)/2)
	g.Rotate(rotation)
	g.Scale(scale, scale)
	g.Translate(pos.X, pos.Y)
	return g
}

// lightTint turns 0..1 channel intensities into a half-strength additive tint.
func lightTint(r, g, b float64) color.NRGBA {
	ch := func(v float64) uint8 {
		return uint8(math.Round(vfx.Clamp01(v*0.5) * 255))
	}
	return color.NRGBA{ch(r), ch(g), ch(b), 255}
}
