// Package power reports whether the monitor the strip is mounted on is
// switched on.
package power

import (
	"fmt"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpioutil"
)

// Source reports the debounced power state.
type Source interface {
	ReadDebounced() bool
}

// GPIO samples a digital input wired to the monitor's power rail.
type GPIO struct {
	pin gpio.PinIO
}

// DefaultDebounce filters contact bounce and short glitches on the input.
const DefaultDebounce = 50 * time.Millisecond

// OpenGPIO looks the pin up by name (e.g. "GPIO17") and wraps it with periph's
// debouncer. The host drivers must already be initialized with host.Init.
func OpenGPIO(name string, debounce time.Duration) (*GPIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("power pin %q not found", name)
	}
	return NewGPIO(p, debounce)
}

// NewGPIO configures p as a pulled-down input.
func NewGPIO(p gpio.PinIO, debounce time.Duration) (*GPIO, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	d, err := gpioutil.Debounce(p, debounce, debounce, gpio.BothEdges)
	if err != nil {
		return nil, fmt.Errorf("debounce %s: %w", p, err)
	}
	if err := d.In(gpio.PullDown, gpio.BothEdges); err != nil {
		return nil, fmt.Errorf("configure %s: %w", p, err)
	}
	return &GPIO{pin: d}, nil
}

func (g *GPIO) ReadDebounced() bool { return g.pin.Read() == gpio.High }

func (g *GPIO) String() string { return g.pin.String() }

// Static is a Source set in code, used with -sim and in tests.
type Static struct{ v atomic.Bool }

func NewStatic(on bool) *Static {
	s := &Static{}
	s.v.Store(on)
	return s
}

func (s *Static) Set(on bool)         { s.v.Store(on) }
func (s *Static) ReadDebounced() bool { return s.v.Load() }
