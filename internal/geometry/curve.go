package geometry

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/interp"
)

// quadNodes is the Gauss-Legendre order used per pixel step.
const quadNodes = 8

// Curve is a cubic spline through an edge's control points, parameterized by
// the edge's principal axis (x for horizontal edges, y for vertical ones).
// It is only defined between the first and last control point.
type Curve struct {
	horizontal bool
	lo, hi     int
	spline     interp.NotAKnotCubic
}

// Fit builds a Curve from control points ordered along the principal axis.
func Fit(points []image.Point, horizontal bool) (*Curve, error) {
	if len(points) < MinControlPoints {
		return nil, fmt.Errorf("%w: need %d, got %d", ErrInsufficientControlPoints, MinControlPoints, len(points))
	}
	ts := make([]float64, len(points))
	vs := make([]float64, len(points))
	for i, p := range points {
		t, v := p.Y, p.X
		if horizontal {
			t, v = p.X, p.Y
		}
		ts[i], vs[i] = float64(t), float64(v)
	}
	if err := checkMonotonic(ts); err != nil {
		return nil, err
	}
	c := &Curve{horizontal: horizontal, lo: int(ts[0]), hi: int(ts[len(ts)-1])}
	if err := c.spline.Fit(ts, vs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDegenerateCurve, err)
	}
	return c, nil
}

// checkMonotonic requires strictly increasing values. A sequence that runs
// strictly backwards can never be scanned forward and is reported as a
// resolution failure rather than a bad curve.
func checkMonotonic(ts []float64) error {
	inc, dec := true, true
	for i := 1; i < len(ts); i++ {
		if ts[i] <= ts[i-1] {
			inc = false
		}
		if ts[i] >= ts[i-1] {
			dec = false
		}
	}
	switch {
	case inc:
		return nil
	case dec:
		return fmt.Errorf("%w: control points run against the edge direction", ErrGeometryResolutionFailed)
	case ts[0] == ts[len(ts)-1]:
		return fmt.Errorf("%w: empty domain", ErrDegenerateCurve)
	default:
		return fmt.Errorf("%w: control points are not monotonic along the edge", ErrDegenerateCurve)
	}
}

// Secondary evaluates the off-axis coordinate at t.
func (c *Curve) Secondary(t float64) float64 { return c.spline.Predict(t) }

// Point returns the pixel on the curve at principal coordinate t, rounding the
// secondary coordinate to the nearest pixel.
func (c *Curve) Point(t int) image.Point {
	v := int(math.Round(c.Secondary(float64(t))))
	if c.horizontal {
		return image.Point{X: t, Y: v}
	}
	return image.Point{X: v, Y: t}
}

// ArcLength integrates sqrt(1 + v'(t)^2) between a and b.
func (c *Curve) ArcLength(a, b float64) float64 {
	f := func(t float64) float64 {
		d := c.spline.PredictDerivative(t)
		return math.Sqrt(1 + d*d)
	}
	return quad.Fixed(f, a, b, quadNodes, nil, 0)
}

// Length is the arc length over the whole domain.
func (c *Curve) Length() float64 {
	return c.cumulative()[c.hi-c.lo]
}

// cumulative returns the running arc length at every integer step of the
// domain, cum[0] being zero.
func (c *Curve) cumulative() []float64 {
	steps := c.hi - c.lo
	cum := make([]float64, steps+1)
	for i := 1; i <= steps; i++ {
		t := float64(c.lo + i)
		cum[i] = cum[i-1] + c.ArcLength(t-1, t)
	}
	return cum
}

// Place walks the domain once and returns one point per segment boundary:
// the first control point, one point where the running arc length reaches
// each cumulative segment sum, and the last control point. Interior points
// land strictly before the last pixel step; segments shorter than a pixel may
// put neighbours on the same step.
func (c *Curve) Place(segments []float64, first, last image.Point) ([]image.Point, error) {
	cum := c.cumulative()
	steps := len(cum) - 1
	eps := 1e-6 * math.Max(1, cum[steps])

	out := make([]image.Point, 0, len(segments)+1)
	out = append(out, first)
	target := 0.0
	idx := 1
	for j := 0; j < len(segments)-1; j++ {
		target += segments[j]
		for idx < steps && cum[idx] < target-eps {
			idx++
		}
		if idx >= steps {
			return nil, fmt.Errorf("%w: found %d of %d points over %d pixel steps",
				ErrGeometryResolutionFailed, len(out)+1, len(segments)+1, steps)
		}
		out = append(out, c.Point(c.lo+idx))
	}
	return append(out, last), nil
}
