package led

import (
	"fmt"

	"github.com/coreman2200/backlight/internal/layout"
)

// Driver abstracts an LED output sink.
type Driver interface {
	// Write pushes an RGB frame to hardware. len(rgb) must be 3*N.
	Write(rgb []byte) error
	// Close releases resources.
	Close() error
}

// RGB is one 8-bit color sample.
type RGB struct{ R, G, B uint8 }

var Black RGB

// RGBA implements color.Color.
func (c RGB) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R)
	r |= r << 8
	g = uint32(c.G)
	g |= g << 8
	b = uint32(c.B)
	b |= b << 8
	return r, g, b, 0xffff
}

func (c RGB) String() string { return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B) }

// EdgeColors holds one color per LED for each edge, in strip order.
type EdgeColors map[layout.Edge][]RGB

// NewEdgeColors allocates black slices sized by the layout.
func NewEdgeColors(l layout.Layout) EdgeColors {
	ec := make(EdgeColors, len(l.Order))
	for _, e := range l.Order {
		ec[e] = make([]RGB, l.Counts[e])
	}
	return ec
}
