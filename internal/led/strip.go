package led

import (
	"errors"
	"fmt"
	"time"

	"github.com/coreman2200/backlight/internal/layout"
)

// Strip is a frame buffer in front of a Driver. Pixels are staged with
// SetPixel or SetEdges and reach the hardware together on Show.
// A Strip is owned by a single goroutine.
type Strip struct {
	drv    Driver
	layout layout.Layout
	post   Post

	pix []RGB
	out []byte

	// Last holds metrics from the most recent Show.
	Last struct {
		ShowMS float64
		Frames uint64
	}
}

func NewStrip(drv Driver, l layout.Layout, post Post) (*Strip, error) {
	if drv == nil {
		return nil, errors.New("strip: nil driver")
	}
	if l.Count() == 0 {
		return nil, errors.New("strip: empty layout")
	}
	return &Strip{
		drv:    drv,
		layout: l,
		post:   post,
		pix:    make([]RGB, l.Count()),
		out:    make([]byte, l.Count()*3),
	}, nil
}

func (s *Strip) Len() int { return len(s.pix) }

// SetPixel stages color c at global index i. Out-of-range indices are ignored.
func (s *Strip) SetPixel(i int, c RGB) {
	if i < 0 || i >= len(s.pix) {
		return
	}
	s.pix[i] = c
}

// SetEdges stages per-edge colors at their layout positions.
func (s *Strip) SetEdges(ec EdgeColors) {
	for e, cs := range ec {
		r := s.layout.Range(e)
		for i := 0; i < len(cs) && i < r.Count; i++ {
			s.SetPixel(r.Start+i, cs[i])
		}
	}
}

func (s *Strip) Fill(c RGB) {
	for i := range s.pix {
		s.pix[i] = c
	}
}

// Show runs the post stage over a copy of the staged pixels and writes the
// frame in one driver call.
func (s *Strip) Show() error {
	start := time.Now()
	for i, c := range s.pix {
		s.out[i*3+0] = c.R
		s.out[i*3+1] = c.G
		s.out[i*3+2] = c.B
	}
	s.post.Apply(s.out)
	if err := s.drv.Write(s.out); err != nil {
		return fmt.Errorf("strip show: %w", err)
	}
	s.Last.Frames++
	s.Last.ShowMS = float64(time.Since(start).Microseconds()) / 1000.0
	return nil
}

// Frame returns a copy of the last frame handed to the driver.
func (s *Strip) Frame() []byte {
	return append([]byte(nil), s.out...)
}

// Close blanks the strip and releases the driver.
func (s *Strip) Close() error {
	s.Fill(Black)
	err := s.Show()
	return errors.Join(err, s.drv.Close())
}
