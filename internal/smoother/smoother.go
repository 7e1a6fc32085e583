// Package smoother keeps a per-LED exponential moving average in HSV space.
package smoother

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/coreman2200/backlight/internal/layout"
	"github.com/coreman2200/backlight/internal/led"
)

// DefaultAlpha is the weight given to each new sample.
const DefaultAlpha = 0.5

// HSV holds hue, saturation and value, all in [0,1).
type HSV struct{ H, S, V float64 }

// FromRGB converts an 8-bit color.
func FromRGB(c led.RGB) HSV {
	h, s, v := colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}.Hsv()
	return HSV{H: math.Mod(h/360, 1), S: s, V: v}
}

// RGB converts back to 8 bits.
func (c HSV) RGB() led.RGB {
	r, g, b := colorful.Hsv(c.H*360, c.S, c.V).Clamped().RGB255()
	return led.RGB{R: r, G: g, B: b}
}

// Blend moves prev toward next by alpha, taking the short way around the hue
// circle. The resulting hue is wrapped back into [0,1).
func Blend(prev, next HSV, alpha float64) HSV {
	ph := prev.H
	switch d := next.H - ph; {
	case d > 0.5:
		ph++
	case d < -0.5:
		ph--
	}
	h := math.Mod(ph*(1-alpha)+next.H*alpha, 1)
	if h < 0 {
		h++
	}
	if h >= 1 {
		h = 0
	}
	return HSV{
		H: h,
		S: prev.S*(1-alpha) + next.S*alpha,
		V: prev.V*(1-alpha) + next.V*alpha,
	}
}

// State is the output gate.
type State int

const (
	Active State = iota
	Off
)

func (s State) String() string {
	if s == Off {
		return "off"
	}
	return "active"
}

// Smoother owns the HSV memory of every LED. It is not safe for concurrent
// use; the render loop is its only caller.
type Smoother struct {
	alpha  float64
	state  State
	cur    map[layout.Edge][]HSV
	target map[layout.Edge][]HSV
	out    led.EdgeColors
}

// New sizes the memory from per-edge counts. Every LED starts black.
// alpha outside (0,1] falls back to DefaultAlpha.
func New(counts map[layout.Edge]int, alpha float64) *Smoother {
	if alpha <= 0 || alpha > 1 {
		alpha = DefaultAlpha
	}
	s := &Smoother{
		alpha:  alpha,
		cur:    make(map[layout.Edge][]HSV, len(counts)),
		target: make(map[layout.Edge][]HSV, len(counts)),
		out:    make(led.EdgeColors, len(counts)),
	}
	for e, n := range counts {
		s.cur[e] = make([]HSV, n)
		s.target[e] = make([]HSV, n)
		s.out[e] = make([]led.RGB, n)
	}
	return s
}

// Update records samples as the new target and advances one step.
func (s *Smoother) Update(samples led.EdgeColors) led.EdgeColors {
	s.SetTarget(samples)
	return s.Step()
}

// SetTarget records samples without blending. Targets are kept while the
// smoother is off.
func (s *Smoother) SetTarget(samples led.EdgeColors) {
	for e, cs := range samples {
		t := s.target[e]
		for i := 0; i < len(cs) && i < len(t); i++ {
			t[i] = FromRGB(cs[i])
		}
	}
}

// Step blends every LED once toward its target and returns the colors to
// show. While Off it returns black and leaves the memory untouched.
// The returned map is reused by the next call.
func (s *Smoother) Step() led.EdgeColors {
	if s.state == Off {
		for _, cs := range s.out {
			for i := range cs {
				cs[i] = led.Black
			}
		}
		return s.out
	}
	for e, cur := range s.cur {
		t, o := s.target[e], s.out[e]
		for i := range cur {
			cur[i] = Blend(cur[i], t[i], s.alpha)
			o[i] = cur[i].RGB()
		}
	}
	return s.out
}

// SetPowered switches between Active and Off.
func (s *Smoother) SetPowered(on bool) {
	if on {
		s.state = Active
	} else {
		s.state = Off
	}
}

func (s *Smoother) State() State { return s.state }

// Snapshot copies the HSV memory.
func (s *Smoother) Snapshot() map[layout.Edge][]HSV {
	out := make(map[layout.Edge][]HSV, len(s.cur))
	for e, cs := range s.cur {
		out[e] = append([]HSV(nil), cs...)
	}
	return out
}
