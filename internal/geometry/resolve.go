package geometry

import (
	"fmt"
	"image"

	"github.com/coreman2200/backlight/internal/layout"
)

// EdgeGeometry is the resolved, strip-ordered list of sample pixels for one edge.
type EdgeGeometry struct {
	Edge     layout.Edge
	Points   []image.Point
	Reversed bool
	Length   float64 // arc length of the fitted curve in pixels
}

// Options tunes Resolve.
type Options struct {
	// Discount scales the longer vertical edge before the perspective ratio
	// is taken. Values outside (0, 1] mean no discount.
	Discount float64
	// Reversed marks edges whose wiring runs against the principal axis.
	Reversed map[layout.Edge]bool
	// Bounds, when non-empty, is the camera frame every point must fall in.
	Bounds image.Rectangle
}

// Resolve turns per-edge control points into one sample pixel per LED.
// Vertical edges are spaced evenly by arc length. Horizontal edges use a
// geometric progression driven by the ratio of the vertical edges' lengths.
func Resolve(control map[layout.Edge][]image.Point, counts map[layout.Edge]int, opts Options) (map[layout.Edge]EdgeGeometry, error) {
	curves := make(map[layout.Edge]*Curve, len(counts))
	lengths := make(map[layout.Edge]float64, len(counts))
	for _, e := range layout.Edges {
		if _, ok := counts[e]; !ok {
			continue
		}
		c, err := Fit(control[e], e.Horizontal())
		if err != nil {
			return nil, fmt.Errorf("edge %s: %w", e, err)
		}
		curves[e] = c
		lengths[e] = c.Length()
	}

	out := make(map[layout.Edge]EdgeGeometry, len(curves))
	for _, e := range layout.Edges {
		c, ok := curves[e]
		if !ok {
			continue
		}
		n := counts[e]
		if n < 2 {
			return nil, fmt.Errorf("edge %s: %w: need at least 2 leds, got %d", e, ErrGeometryResolutionFailed, n)
		}

		var segs []float64
		if e.Horizontal() {
			segs = Segments(lengths[e], n-1, lengths[layout.Left], lengths[layout.Right], opts.Discount)
		} else {
			segs = Segments(lengths[e], n-1, 0, 0, 1)
		}

		pts := control[e]
		placed, err := c.Place(segs, pts[0], pts[len(pts)-1])
		if err != nil {
			return nil, fmt.Errorf("edge %s: %w", e, err)
		}
		if !opts.Bounds.Empty() {
			for _, p := range placed {
				if !p.In(opts.Bounds) {
					return nil, fmt.Errorf("edge %s: %w: point %v outside frame %v", e, ErrGeometryResolutionFailed, p, opts.Bounds)
				}
			}
		}

		g := EdgeGeometry{Edge: e, Points: placed, Length: lengths[e]}
		if opts.Reversed[e] {
			g = g.Reverse()
		}
		out[e] = g
	}
	return out, nil
}

// Reverse flips the strip order of the points.
func (g EdgeGeometry) Reverse() EdgeGeometry {
	pts := make([]image.Point, len(g.Points))
	for i, p := range g.Points {
		pts[len(pts)-1-i] = p
	}
	g.Points = pts
	g.Reversed = !g.Reversed
	return g
}
