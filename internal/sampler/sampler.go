// Package sampler reads a blurred color at every LED sample point of a frame.
package sampler

import (
	"image"
	"image/color"
	"math"

	"github.com/coreman2200/backlight/internal/geometry"
	"github.com/coreman2200/backlight/internal/layout"
	"github.com/coreman2200/backlight/internal/led"
)

// Sampler applies a Gaussian window around each point and reports the
// weighted color at its center. Only the centre pixel is computed, so the
// cost is one kernel per LED rather than a full-frame blur.
type Sampler struct {
	k Kernel
}

// New returns a Sampler with a size×size kernel.
func New(size int, sigma float64) (*Sampler, error) {
	k, err := NewKernel(size, sigma)
	if err != nil {
		return nil, err
	}
	return &Sampler{k: k}, nil
}

// Sample returns one color per point, per edge, in geometry order.
func (s *Sampler) Sample(img image.Image, geo map[layout.Edge]geometry.EdgeGeometry) led.EdgeColors {
	return s.SampleInto(nil, img, geo)
}

// SampleInto is Sample writing into dst, reusing its slices where they have
// the right length. A nil dst is allocated.
func (s *Sampler) SampleInto(dst led.EdgeColors, img image.Image, geo map[layout.Edge]geometry.EdgeGeometry) led.EdgeColors {
	if dst == nil {
		dst = make(led.EdgeColors, len(geo))
	}
	px := pixelReader(img)
	b := img.Bounds()
	for e, g := range geo {
		out := dst[e]
		if len(out) != len(g.Points) {
			out = make([]led.RGB, len(g.Points))
		}
		for i, p := range g.Points {
			out[i] = s.at(px, b, p)
		}
		dst[e] = out
	}
	return dst
}

// at convolves the kernel over the window centered on p. Windows that would
// cross the frame edge are shifted inside it; when the frame is smaller than
// the kernel the weights that still land on pixels are renormalized.
func (s *Sampler) at(px func(x, y int) (r, g, b uint8), bounds image.Rectangle, p image.Point) led.RGB {
	size := s.k.Size
	x0 := clampOrigin(p.X-size/2, bounds.Min.X, bounds.Max.X-size)
	y0 := clampOrigin(p.Y-size/2, bounds.Min.Y, bounds.Max.Y-size)

	var r, g, bl, wsum float64
	for ky := 0; ky < size; ky++ {
		y := y0 + ky
		if y >= bounds.Max.Y {
			break
		}
		for kx := 0; kx < size; kx++ {
			x := x0 + kx
			if x >= bounds.Max.X {
				break
			}
			w := s.k.Weights[ky*size+kx]
			pr, pg, pb := px(x, y)
			r += w * float64(pr)
			g += w * float64(pg)
			bl += w * float64(pb)
			wsum += w
		}
	}
	if wsum == 0 {
		return led.Black
	}
	return led.RGB{R: to8(r / wsum), G: to8(g / wsum), B: to8(bl / wsum)}
}

func clampOrigin(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

func to8(v float64) uint8 {
	return uint8(math.Min(255, math.Max(0, math.Round(v))))
}

// pixelReader picks a direct accessor for the common decoder outputs.
func pixelReader(img image.Image) func(x, y int) (r, g, b uint8) {
	switch m := img.(type) {
	case *image.YCbCr:
		return func(x, y int) (uint8, uint8, uint8) {
			c := m.YCbCrAt(x, y)
			return color.YCbCrToRGB(c.Y, c.Cb, c.Cr)
		}
	case *image.RGBA:
		return func(x, y int) (uint8, uint8, uint8) {
			i := m.PixOffset(x, y)
			return m.Pix[i], m.Pix[i+1], m.Pix[i+2]
		}
	case *image.NRGBA:
		return func(x, y int) (uint8, uint8, uint8) {
			i := m.PixOffset(x, y)
			return m.Pix[i], m.Pix[i+1], m.Pix[i+2]
		}
	default:
		return func(x, y int) (uint8, uint8, uint8) {
			r, g, b, _ := img.At(x, y).RGBA()
			return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)
		}
	}
}
