package geometry

import (
	"image"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/backlight/internal/layout"
)

// square returns control points for an axis-aligned size×size box at the origin.
func square(size int) map[layout.Edge][]image.Point {
	var top, bottom, left, right []image.Point
	for i := 0; i < 4; i++ {
		v := size * i / 3
		top = append(top, image.Pt(v, 0))
		bottom = append(bottom, image.Pt(v, size))
		left = append(left, image.Pt(0, v))
		right = append(right, image.Pt(size, v))
	}
	return map[layout.Edge][]image.Point{
		layout.Top: top, layout.Bottom: bottom, layout.Left: left, layout.Right: right,
	}
}

func counts(n int) map[layout.Edge]int {
	return map[layout.Edge]int{layout.Top: n, layout.Right: n, layout.Bottom: n, layout.Left: n}
}

func TestResolveRectangleIsEvenlySpaced(t *testing.T) {
	geo, err := Resolve(square(90), counts(10), Options{Discount: 1})
	require.NoError(t, err)
	require.Len(t, geo, 4)

	var wantTop, wantLeft []image.Point
	for i := 0; i < 10; i++ {
		wantTop = append(wantTop, image.Pt(i*10, 0))
		wantLeft = append(wantLeft, image.Pt(0, i*10))
	}
	if diff := cmp.Diff(wantTop, geo[layout.Top].Points); diff != "" {
		t.Fatalf("top points mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantLeft, geo[layout.Left].Points); diff != "" {
		t.Fatalf("left points mismatch (-want +got):\n%s", diff)
	}
	assert.InDelta(t, 90, geo[layout.Right].Length, 1e-6)
}

func TestResolvePinsEndpointsAndCount(t *testing.T) {
	control := map[layout.Edge][]image.Point{
		layout.Top:    {{12, 30}, {200, 22}, {420, 24}, {610, 35}},
		layout.Bottom: {{20, 420}, {210, 431}, {400, 433}, {600, 425}},
		layout.Left:   {{12, 30}, {8, 150}, {10, 300}, {20, 420}},
		layout.Right:  {{610, 35}, {616, 140}, {613, 290}, {600, 425}},
	}
	n := map[layout.Edge]int{layout.Top: 37, layout.Right: 21, layout.Bottom: 37, layout.Left: 21}
	geo, err := Resolve(control, n, Options{Discount: 0.95, Bounds: image.Rect(0, 0, 640, 480)})
	require.NoError(t, err)

	for e, g := range geo {
		require.Lenf(t, g.Points, n[e], "edge %s", e)
		assert.Equal(t, control[e][0], g.Points[0], "edge %s first", e)
		assert.Equal(t, control[e][3], g.Points[len(g.Points)-1], "edge %s last", e)
	}
}

func TestResolvePerspectiveCompressesTowardShorterSide(t *testing.T) {
	control := map[layout.Edge][]image.Point{
		layout.Top:    {{0, 0}, {67, 7}, {133, 13}, {200, 20}},
		layout.Bottom: {{0, 120}, {67, 113}, {133, 107}, {200, 100}},
		layout.Left:   {{0, 0}, {0, 40}, {0, 80}, {0, 120}},
		layout.Right:  {{200, 20}, {200, 47}, {200, 73}, {200, 100}},
	}
	geo, err := Resolve(control, counts(10), Options{Discount: 1})
	require.NoError(t, err)

	for _, e := range []layout.Edge{layout.Top, layout.Bottom} {
		pts := geo[e].Points
		first := pts[1].X - pts[0].X
		last := pts[len(pts)-1].X - pts[len(pts)-2].X
		assert.Greaterf(t, first, last, "edge %s should be spaced widest at the longer left side", e)
	}
}

func TestResolveReversal(t *testing.T) {
	natural, err := Resolve(square(90), counts(10), Options{})
	require.NoError(t, err)
	flipped, err := Resolve(square(90), counts(10), Options{Reversed: map[layout.Edge]bool{layout.Top: true}})
	require.NoError(t, err)

	assert.True(t, flipped[layout.Top].Reversed)
	assert.False(t, flipped[layout.Bottom].Reversed)
	if diff := cmp.Diff(natural[layout.Top].Reverse().Points, flipped[layout.Top].Points); diff != "" {
		t.Fatalf("reversed top mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(natural[layout.Top], natural[layout.Top].Reverse().Reverse()); diff != "" {
		t.Fatalf("double reversal changed geometry:\n%s", diff)
	}
}

func TestResolveErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(map[layout.Edge][]image.Point)
		n      int
		bounds image.Rectangle
		want   error
	}{
		{
			name:   "too few points",
			mutate: func(c map[layout.Edge][]image.Point) { c[layout.Top] = c[layout.Top][:3] },
			n:      10,
			want:   ErrInsufficientControlPoints,
		},
		{
			name: "not monotonic",
			mutate: func(c map[layout.Edge][]image.Point) {
				c[layout.Left] = []image.Point{{0, 0}, {0, 50}, {0, 40}, {0, 90}}
			},
			n:    10,
			want: ErrDegenerateCurve,
		},
		{
			name: "duplicate principal coordinate",
			mutate: func(c map[layout.Edge][]image.Point) {
				c[layout.Bottom] = []image.Point{{0, 90}, {30, 90}, {30, 91}, {90, 90}}
			},
			n:    10,
			want: ErrDegenerateCurve,
		},
		{
			name: "strictly decreasing",
			mutate: func(c map[layout.Edge][]image.Point) {
				c[layout.Top] = []image.Point{{90, 0}, {60, 0}, {30, 0}, {0, 0}}
			},
			n:    10,
			want: ErrGeometryResolutionFailed,
		},
		{
			name:   "more leds than pixel steps",
			mutate: func(map[layout.Edge][]image.Point) {},
			n:      120,
			want:   ErrGeometryResolutionFailed,
		},
		{
			name:   "outside frame",
			mutate: func(map[layout.Edge][]image.Point) {},
			n:      10,
			bounds: image.Rect(0, 0, 50, 50),
			want:   ErrGeometryResolutionFailed,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := square(90)
			tc.mutate(c)
			_, err := Resolve(c, counts(tc.n), Options{Bounds: tc.bounds})
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestPlaceSharesStepsForSubPixelSegments(t *testing.T) {
	line := []image.Point{{0, 0}, {30, 0}, {60, 0}, {90, 0}}
	c, err := Fit(line, true)
	require.NoError(t, err)

	// 100 leds over 90 steps: the short segments sit at the left end
	segs := Segments(90, 99, 10, 30, 1)
	require.Less(t, segs[0], 1.0)
	pts, err := c.Place(segs, line[0], line[3])
	require.NoError(t, err)
	require.Len(t, pts, 100)
	assert.Equal(t, line[0], pts[0])
	assert.Equal(t, line[3], pts[99])

	shared := 0
	for i := 1; i < len(pts); i++ {
		assert.GreaterOrEqual(t, pts[i].X, pts[i-1].X)
		if pts[i] == pts[i-1] {
			shared++
		}
	}
	assert.Positive(t, shared)
	for _, p := range pts[1:99] {
		assert.Less(t, p.X, 90, "interior points stay before the last step")
	}

	// a last segment under a pixel has no step left before the endpoint
	_, err = c.Place(Segments(90, 59, 30, 10, 1), line[0], line[3])
	assert.ErrorIs(t, err, ErrGeometryResolutionFailed)
}

func TestSegmentsEqualWhenSidesMatch(t *testing.T) {
	segs := Segments(90, 9, 55, 55, 1)
	require.Len(t, segs, 9)
	for _, s := range segs {
		assert.InDelta(t, 10, s, 1e-9)
	}
}

func TestSegmentsGeometricProgression(t *testing.T) {
	const total = 100.0
	for _, tc := range []struct {
		name        string
		left, right float64
	}{
		{"left longer", 120, 80},
		{"right longer", 80, 120},
	} {
		t.Run(tc.name, func(t *testing.T) {
			segs := Segments(total, 5, tc.left, tc.right, 1)
			require.Len(t, segs, 5)

			sum := 0.0
			for _, s := range segs {
				sum += s
			}
			assert.InDelta(t, total, sum, 1e-9)

			ratio := segs[1] / segs[0]
			for i := 1; i < len(segs); i++ {
				assert.InDelta(t, ratio, segs[i]/segs[i-1], 1e-9)
			}
			widest := math.Max(segs[0], segs[4])
			narrowest := math.Min(segs[0], segs[4])
			assert.InDelta(t, 1.5, widest/narrowest, 1e-9)
			if tc.left > tc.right {
				assert.Greater(t, segs[0], segs[4])
			} else {
				assert.Less(t, segs[0], segs[4])
			}
		})
	}
}

func TestSegmentsDiscountCanFlattenRatio(t *testing.T) {
	segs := Segments(100, 4, 105, 100, 0.9)
	for _, s := range segs {
		assert.InDelta(t, 25, s, 1e-9)
	}
	assert.Nil(t, Segments(100, 0, 1, 2, 1))
	assert.Equal(t, []float64{100}, Segments(100, 1, 1, 2, 1))
}
