// Package testpattern drives the strip with fixed patterns for checking the
// wiring against the configured layout, without a camera.
package testpattern

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/backlight/internal/layout"
	"github.com/coreman2200/backlight/internal/led"
)

type Kind string

const (
	None       Kind = ""
	IndexSweep Kind = "index_sweep"  // one white LED walks the whole chain
	RGBTest    Kind = "rgb_channels" // whole strip red, green, blue
	EdgeWalk   Kind = "edge_walk"    // one edge at a time, first LED brighter
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case None, IndexSweep, RGBTest, EdgeWalk:
		return k, nil
	}
	return None, fmt.Errorf("unknown test pattern %q", s)
}

// EdgeColor is the color EdgeWalk uses for each edge.
var EdgeColor = map[layout.Edge]led.RGB{
	layout.Top:    {R: 255},
	layout.Right:  {G: 255},
	layout.Bottom: {B: 255},
	layout.Left:   {R: 255, G: 255},
}

type Runner struct {
	kind Kind
	step int
}

func NewRunner(k Kind) *Runner { return &Runner{kind: k} }
func (r *Runner) Kind() Kind   { return r.kind }

// Step paints the next pattern frame onto s; returns false when complete.
func (r *Runner) Step(l layout.Layout, s *led.Strip) bool {
	s.Fill(led.Black)
	n := l.Count()

	switch r.kind {
	case IndexSweep:
		if r.step >= n {
			return false
		}
		s.SetPixel(r.step, led.RGB{R: 255, G: 255, B: 255})
	case RGBTest:
		if r.step >= 3 {
			return false
		}
		c := [3]led.RGB{{R: 255}, {G: 255}, {B: 255}}[r.step]
		s.Fill(c)
	case EdgeWalk:
		if r.step >= len(l.Order) {
			return false
		}
		e := l.Order[r.step]
		c := EdgeColor[e]
		dim := led.RGB{R: c.R / 4, G: c.G / 4, B: c.B / 4}
		rg := l.Range(e)
		for i := 0; i < rg.Count; i++ {
			s.SetPixel(l.Index(e, i), dim)
		}
		// full brightness marks where the edge starts on the chain
		s.SetPixel(l.Index(e, 0), c)
	default:
		return false
	}
	r.step++
	return true
}

// Run shows every step for hold, then blanks the strip.
func Run(ctx context.Context, k Kind, l layout.Layout, s *led.Strip, hold time.Duration) error {
	r := NewRunner(k)
	t := time.NewTicker(hold)
	defer t.Stop()
	for r.Step(l, s) {
		if err := s.Show(); err != nil {
			return err
		}
		log.Debug().Str("pattern", string(k)).Int("step", r.step).Msg("test pattern")
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
	s.Fill(led.Black)
	return s.Show()
}
