package render

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
)

// Glow is the shared soft-glow sprite: a white radial falloff stored as an
// alpha mask. It implements vfx.Texture.
type Glow struct {
	size  int
	alpha []uint8
	img   *image.RGBA
}

// NewGlow renders a size x size glow with a gg radial gradient.
func NewGlow(size int) *Glow {
	if size < 2 {
		size = 2
	}
	c := float64(size) / 2

	dc := gg.NewContext(size, size)
	grad := gg.NewRadialGradient(c, c, 0, c, c, c)
	grad.AddColorStop(0, color.NRGBA{255, 255, 255, 255})
	grad.AddColorStop(0.25, color.NRGBA{255, 255, 255, 170})
	grad.AddColorStop(0.6, color.NRGBA{255, 255, 255, 48})
	grad.AddColorStop(1, color.NRGBA{255, 255, 255, 0})
	dc.SetFillStyle(grad)
	dc.DrawCircle(c, c, c)
	dc.Fill()

	img, ok := dc.Image().(*image.RGBA)
	if !ok {
		img = image.NewRGBA(image.Rect(0, 0, size, size))
	}

	alpha := make([]uint8, size*size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			alpha[y*size+x] = img.Pix[y*img.Stride+x*4+3]
		}
	}

	return &Glow{size: size, alpha: alpha, img: img}
}

func (g *Glow) Size() (int, int) {
	return g.size, g.size
}

// Image returns the rendered sprite (premultiplied white).
func (g *Glow) Image() *image.RGBA {
	return g.img
}

// AlphaAt returns the mask value at (x, y), 0 outside the sprite.
func (g *Glow) AlphaAt(x, y int) uint8 {
	if x < 0 || y < 0 || x >= g.size || y >= g.size {
		return 0
	}
	return g.alpha[y*g.size+x]
}
