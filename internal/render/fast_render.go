package render

import (
	"image/color"
	"math"

	"lunar-vfx/internal/vfx"
)

// FastRenderer writes straight into an RGBA byte buffer. The destination is
// treated as opaque; sources are non-premultiplied colors.
//
// A renderer may be restricted to a band of rows so several goroutines can
// share one buffer without touching the same pixels.
type FastRenderer struct {
	buffer []byte
	width  int
	height int
	stride int // bytes per row (width * 4)

	minY, maxY int // rows [minY, maxY) are writable
}

// NewFastRenderer creates a renderer over buffer, allocating one if nil.
func NewFastRenderer(width, height int, buffer []byte) *FastRenderer {
	if buffer == nil {
		buffer = make([]byte, width*height*4)
	}
	return &FastRenderer{
		buffer: buffer,
		width:  width,
		height: height,
		stride: width * 4,
		minY:   0,
		maxY:   height,
	}
}

// Band returns a renderer sharing the same buffer that only writes rows [y0, y1).
func (r *FastRenderer) Band(y0, y1 int) *FastRenderer {
	b := *r
	b.minY = max(r.minY, y0)
	b.maxY = min(r.maxY, y1)
	return &b
}

// GetBuffer returns the underlying pixel buffer
func (r *FastRenderer) GetBuffer() []byte {
	return r.buffer
}

// Clear fills the writable rows with a solid color
func (r *FastRenderer) Clear(c color.NRGBA) {
	for i := r.minY * r.stride; i < r.maxY*r.stride; i += 4 {
		r.buffer[i] = c.R
		r.buffer[i+1] = c.G
		r.buffer[i+2] = c.B
		r.buffer[i+3] = 255
	}
}

// blend composites c onto the pixel at idx. strength scales the source alpha.
func (r *FastRenderer) blend(idx int, c color.NRGBA, strength float64, mode vfx.BlendMode) {
	a := float64(c.A) / 255 * strength
	if a <= 0 {
		return
	}

	switch mode {
	case vfx.BlendAdditive:
		r.buffer[idx] = addChannel(r.buffer[idx], float64(c.R)*a)
		r.buffer[idx+1] = addChannel(r.buffer[idx+1], float64(c.G)*a)
		r.buffer[idx+2] = addChannel(r.buffer[idx+2], float64(c.B)*a)
	case vfx.BlendOpaque:
		r.buffer[idx] = c.R
		r.buffer[idx+1] = c.G
		r.buffer[idx+2] = c.B
	default:
		if a >= 1 {
			r.buffer[idx] = c.R
			r.buffer[idx+1] = c.G
			r.buffer[idx+2] = c.B
			break
		}
		inv := 1 - a
		r.buffer[idx] = uint8(float64(c.R)*a + float64(r.buffer[idx])*inv)
		r.buffer[idx+1] = uint8(float64(c.G)*a + float64(r.buffer[idx+1])*inv)
		r.buffer[idx+2] = uint8(float64(c.B)*a + float64(r.buffer[idx+2])*inv)
	}
	r.buffer[idx+3] = 255
}

func addChannel(dst uint8, v float64) uint8 {
	sum := float64(dst) + v + 0.5
	if sum >= 255 {
		return 255
	}
	return uint8(sum)
}

// DrawFilledRect fills a rectangle with blending
func (r *FastRenderer) DrawFilledRect(x, y, w, h int, c color.NRGBA, mode vfx.BlendMode) {
	x1 := max(0, x)
	y1 := max(r.minY, y)
	x2 := min(r.width, x+w)
	y2 := min(r.maxY, y+h)

	if x1 >= x2 || y1 >= y2 {
		return
	}

	for py := y1; py < y2; py++ {
		rowStart := py * r.stride
		for px := x1; px < x2; px++ {
			r.blend(rowStart+px*4, c, 1, mode)
		}
	}
}

// DrawFilledCircle fills a circle centered on (cx, cy)
func (r *FastRenderer) DrawFilledCircle(cx, cy, radius float64, c color.NRGBA, mode vfx.BlendMode) {
	if radius <= 0 {
		return
	}
	radSq := radius * radius

	y1 := max(r.minY, int(math.Floor(cy-radius)))
	y2 := min(r.maxY, int(math.Ceil(cy+radius))+1)

	for py := y1; py < y2; py++ {
		dy := float64(py) + 0.5 - cy
		dySq := dy * dy
		if dySq > radSq {
			continue
		}
		xExtent := math.Sqrt(radSq - dySq)
		x1 := max(0, int(math.Floor(cx-xExtent)))
		x2 := min(r.width, int(math.Ceil(cx+xExtent))+1)

		rowStart := py * r.stride
		for px := x1; px < x2; px++ {
			dx := float64(px) + 0.5 - cx
			if dx*dx+dySq <= radSq {
				r.blend(rowStart+px*4, c, 1, mode)
			}
		}
	}
}

// DrawSprite stamps an alpha mask centered on (cx, cy), tinted by tint.
// scale is relative to the mask's native size.
func (r *FastRenderer) DrawSprite(mask *Glow, cx, cy float64, tint color.NRGBA, rotation, scale float64, mode vfx.BlendMode) {
	if mask == nil || scale <= 0 || tint.A == 0 {
		return
	}
	size := float64(mask.size)
	half := size * scale / 2
	// Rotated footprint fits inside the circumscribed square
	reach := half * math.Sqrt2

	y1 := max(r.minY, int(math.Floor(cy-reach)))
	y2 := min(r.maxY, int(math.Ceil(cy+reach)))
	x1 := max(0, int(math.Floor(cx-reach)))
	x2 := min(r.width, int(math.Ceil(cx+reach)))
	if x1 >= x2 || y1 >= y2 {
		return
	}

	cos, sin := math.Cos(-rotation), math.Sin(-rotation)
	inv := 1 / scale
	center := size / 2

	for py := y1; py < y2; py++ {
		dy := float64(py) + 0.5 - cy
		rowStart := py * r.stride
		for px := x1; px < x2; px++ {
			dx := float64(px) + 0.5 - cx
			sx := int((dx*cos-dy*sin)*inv + center)
			sy := int((dx*sin+dy*cos)*inv + center)
			if sx < 0 || sy < 0 || sx >= mask.size || sy >= mask.size {
				continue
			}
			m := mask.alpha[sy*mask.size+sx]
			if m == 0 {
				continue
			}
			r.blend(rowStart+px*4, tint, float64(m)/255, mode)
		}
	}
}

// DrawRadialLight adds a soft halo whose intensity falls off quadratically
// from the center. Channels are intensities where 1.0 is full brightness.
func (r *FastRenderer) DrawRadialLight(cx, cy, radius, red, green, blue float64) {
	if radius <= 0 {
		return
	}
	radSq := radius * radius

	y1 := max(r.minY, int(math.Floor(cy-radius)))
	y2 := min(r.maxY, int(math.Ceil(cy+radius)))
	x1 := max(0, int(math.Floor(cx-radius)))
	x2 := min(r.width, int(math.Ceil(cx+radius)))

	for py := y1; py < y2; py++ {
		dy := float64(py) + 0.5 - cy
		rowStart := py * r.stride
		for px := x1; px < x2; px++ {
			dx := float64(px) + 0.5 - cx
			d := (dx*dx + dy*dy) / radSq
			if d >= 1 {
				continue
			}
			f := (1 - d) * (1 - d)
			idx := rowStart + px*4
			r.buffer[idx] = addChannel(r.buffer[idx], red*f*255)
			r.buffer[idx+1] = addChannel(r.buffer[idx+1], green*f*255)
			r.buffer[idx+2] = addChannel(r.buffer[idx+2], blue*f*255)
		}
	}
}

// pixel returns the color at (x, y), or transparent black out of bounds.
func (r *FastRenderer) pixel(x, y int) color.NRGBA {
	if x < 0 || x >= r.width || y < 0 || y >= r.height {
		return color.NRGBA{}
	}
	idx := y*r.stride + x*4
	return color.NRGBA{R: r.buffer[idx], G: r.buffer[idx+1], B: r.buffer[idx+2], A: r.buffer[idx+3]}
}
