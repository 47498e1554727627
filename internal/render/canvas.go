// Package render is the software host for the vfx presets: an RGBA canvas
// with alpha and additive blending, a host-owned dust pool, light halos and
// scene playback.
package render

import (
	"image"
	"image/color"
	"io"
	"math"
	"math/rand"

	"github.com/fogleman/gg"

	"lunar-vfx/internal/config"
	"lunar-vfx/internal/vfx"
)

// lightRadius is the halo radius of one light contribution at full intensity.
const lightRadius = 110

// CanvasOptions configures a Canvas. Zero values pick the defaults.
type CanvasOptions struct {
	Width, Height int
	GlowSize      int
	MaxParticles  int
	MaxLights     int

	// Background is the clear color. The zero value uses the default theme's
	// pianissimo entry.
	Background color.NRGBA

	// Stars is the number of backdrop stars; negative disables them.
	Stars int

	// Workers rasterizes particles in parallel when set and running.
	Workers *RenderWorkerPool
}

// OptionsFromConfig maps application config onto canvas options.
func OptionsFromConfig(cfg config.AppConfig) CanvasOptions {
	return CanvasOptions{
		Width:        cfg.Canvas.Width,
		Height:       cfg.Canvas.Height,
		GlowSize:     cfg.Bloom.GlowSize,
		MaxParticles: cfg.Limits.MaxParticles,
		MaxLights:    cfg.Limits.MaxLights,
	}
}

var _ vfx.Host = (*Canvas)(nil)

type light struct {
	pos     vfx.Vec2
	r, g, b float64
}

// Canvas implements vfx.Host on an in-memory RGBA image.
//
// A frame is BeginFrame, any number of preset calls, then EndFrame. Sprite
// draws land immediately; lights and dust are composited in EndFrame.
// A Canvas is owned by one goroutine.
type Canvas struct {
	width, height int

	img      *image.RGBA
	fast     *FastRenderer
	dc       *gg.Context
	backdrop []byte

	glow      *Glow
	blend     vfx.BlendMode
	clock     float64
	particles *ParticlePool
	workers   *RenderWorkerPool

	lights        []light
	maxLights     int
	droppedLights int
}

func NewCanvas(opts CanvasOptions) *Canvas {
	def := config.DefaultCanvas()
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Height <= 0 {
		opts.Height = def.Height
	}
	if opts.GlowSize <= 0 {
		opts.GlowSize = config.DefaultBloom().GlowSize
	}
	if opts.MaxParticles <= 0 {
		opts.MaxParticles = config.DefaultLimits().MaxParticles
	}
	if opts.MaxLights <= 0 {
		opts.MaxLights = config.DefaultLimits().MaxLights
	}
	if opts.Background == (color.NRGBA{}) {
		opts.Background = vfx.MustTheme(vfx.DefaultTheme).At(vfx.Pianissimo)
	}
	if opts.Stars == 0 {
		opts.Stars = opts.Width * opts.Height / 1800
	}

	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	c := &Canvas{
		width:     opts.Width,
		height:    opts.Height,
		img:       img,
		fast:      NewFastRenderer(opts.Width, opts.Height, img.Pix),
		dc:        gg.NewContextForRGBA(img),
		glow:      NewGlow(opts.GlowSize),
		particles: NewParticlePool(opts.MaxParticles),
		workers:   opts.Workers,
		lights:    make([]light, 0, opts.MaxLights),
		maxLights: opts.MaxLights,
	}
	c.backdrop = c.paintBackdrop(opts.Background, opts.Stars)
	c.BeginFrame()
	return c
}

// paintBackdrop draws the static background once and keeps a copy of it.
func (c *Canvas) paintBackdrop(bg color.NRGBA, stars int) []byte {
	c.fast.Clear(bg)

	// Fixed seed: the starfield is identical across runs
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < stars; i++ {
		x := rng.Float64() * float64(c.width)
		y := rng.Float64() * float64(c.height)
		size := 0.4 + rng.Float64()*0.9
		c.dc.SetColor(color.NRGBA{200, 200, 255, uint8(30 + rng.Intn(70))})
		c.dc.DrawCircle(x, y, size)
		c.dc.Fill()
	}

	backdrop := make([]byte, len(c.img.Pix))
	copy(backdrop, c.img.Pix)
	return backdrop
}

func (c *Canvas) Width() int  { return c.width }
func (c *Canvas) Height() int { return c.height }

// BeginFrame restores the backdrop and clears per-frame lights.
func (c *Canvas) BeginFrame() {
	copy(c.img.Pix, c.backdrop)
	c.lights = c.lights[:0]
	c.droppedLights = 0
	c.blend = vfx.BlendAlpha
}

// EndFrame composites lights and dust onto the frame.
func (c *Canvas) EndFrame() {
	for _, l := range c.lights {
		c.fast.DrawRadialLight(l.pos.X, l.pos.Y, lightRadius, l.r*0.5, l.g*0.5, l.b*0.5)
	}

	particles := c.particles.Particles()
	if c.workers != nil {
		c.workers.RenderParticles(c.fast, particles)
	} else {
		rasterizeParticles(c.fast, particles)
	}

	for _, pt := range particles {
		if pt.Kind == vfx.DustMusicNote {
			c.drawNote(pt)
		}
	}
}

// Advance moves the host clock and the dust simulation forward by dt seconds.
func (c *Canvas) Advance(dt float64) {
	if dt <= 0 {
		return
	}
	c.clock += dt
	c.particles.Update(dt)
}

// Reset drops all dust and rewinds the clock.
func (c *Canvas) Reset() {
	c.particles.Clear()
	c.clock = 0
	c.BeginFrame()
}

// drawNote draws an eighth note with vector paths.
func (c *Canvas) drawNote(pt Particle) {
	col := vfx.WithOpacity(pt.Color, pt.Alpha())
	if col.A == 0 {
		return
	}
	s := pt.Scale
	x, y := pt.Pos.X, pt.Pos.Y

	c.dc.SetColor(col)
	c.dc.DrawEllipse(x, y, 3*s, 2.2*s)
	c.dc.Fill()

	c.dc.SetLineWidth(math.Max(1, 1.2*s))
	c.dc.DrawLine(x+2.8*s, y, x+2.8*s, y-9*s)
	c.dc.Stroke()
	c.dc.DrawLine(x+2.8*s, y-9*s, x+6*s, y-6*s)
	c.dc.Stroke()
}

// SetGlow replaces the glow texture. nil simulates an unloaded asset.
func (c *Canvas) SetGlow(g *Glow) {
	c.glow = g
}

// UnloadGlow drops the glow texture; bloom becomes a no-op.
func (c *Canvas) UnloadGlow() {
	c.glow = nil
}

func (c *Canvas) BlendMode() vfx.BlendMode {
	return c.blend
}

func (c *Canvas) SetBlendMode(mode vfx.BlendMode) {
	c.blend = mode
}

func (c *Canvas) Draw(tex vfx.Texture, pos vfx.Vec2, tint color.NRGBA, rotation, scale float64) {
	switch t := tex.(type) {
	case nil:
		return
	case *Glow:
		c.fast.DrawSprite(t, pos.X, pos.Y, tint, rotation, scale, c.blend)
	default:
		w, h := t.Size()
		c.fast.DrawFilledCircle(pos.X, pos.Y, float64(max(w, h))*scale/2, tint, c.blend)
	}
}

func (c *Canvas) SpawnDust(d vfx.Dust) {
	c.particles.Spawn(d)
}

// AddLight keeps at most MaxLights contributions per frame.
func (c *Canvas) AddLight(pos vfx.Vec2, r, g, b float64) {
	if len(c.lights) >= c.maxLights {
		c.droppedLights++
		return
	}
	c.lights = append(c.lights, light{pos: pos, r: r, g: g, b: b})
}

func (c *Canvas) GlowTexture() vfx.Texture {
	if c.glow == nil {
		return nil
	}
	return c.glow
}

func (c *Canvas) Time() float64 {
	return c.clock
}

// Particles exposes the dust pool.
func (c *Canvas) Particles() *ParticlePool {
	return c.particles
}

// Lights returns how many lights were kept and dropped this frame.
func (c *Canvas) Lights() (kept, dropped int) {
	return len(c.lights), c.droppedLights
}

// Image returns the frame. It is overwritten by the next BeginFrame.
func (c *Canvas) Image() *image.RGBA {
	return c.img
}

// Pixels returns the raw RGBA bytes of the frame.
func (c *Canvas) Pixels() []byte {
	return c.img.Pix
}

// EncodePNG writes the current frame as PNG.
func (c *Canvas) EncodePNG(w io.Writer) error {
	return c.dc.EncodePNG(w)
}

// SavePNG writes the current frame to path.
func (c *Canvas) SavePNG(path string) error {
	return gg.SavePNG(path, c.img)
}

// Pixel returns the frame color at (x, y).
func (c *Canvas) Pixel(x, y int) color.NRGBA {
	return c.fast.pixel(x, y)
}
