package sampler

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/backlight/internal/geometry"
	"github.com/coreman2200/backlight/internal/layout"
	"github.com/coreman2200/backlight/internal/led"
)

func fill(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func geo(e layout.Edge, pts ...image.Point) map[layout.Edge]geometry.EdgeGeometry {
	return map[layout.Edge]geometry.EdgeGeometry{e: {Edge: e, Points: pts}}
}

func TestKernelNormalized(t *testing.T) {
	k, err := NewKernel(9, 3)
	require.NoError(t, err)
	sum := 0.0
	for _, w := range k.Weights {
		sum += w
	}
	assert.InDelta(t, 1, sum, 1e-12)
	center := k.Weights[4*9+4]
	for _, w := range k.Weights {
		assert.LessOrEqual(t, w, center)
	}
	assert.InDelta(t, k.Weights[0], k.Weights[80], 1e-15)

	_, err = NewKernel(8, 3)
	assert.Error(t, err)
	_, err = NewKernel(9, 0)
	assert.Error(t, err)
}

func TestSampleSolidIncludingCorners(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	c := color.RGBA{R: 10, G: 120, B: 240, A: 255}
	fill(img, img.Bounds(), c)

	s, err := New(9, 3)
	require.NoError(t, err)
	got := s.Sample(img, geo(layout.Top, image.Pt(0, 0), image.Pt(20, 15), image.Pt(39, 29)))
	for _, v := range got[layout.Top] {
		assert.Equal(t, led.RGB{R: 10, G: 120, B: 240}, v)
	}
}

func TestSampleBlursIsolatedPixel(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 21, 21))
	img.SetRGBA(10, 10, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	s, err := New(9, 3)
	require.NoError(t, err)
	v := s.Sample(img, geo(layout.Left, image.Pt(10, 10)))[layout.Left][0]

	want := to8(255 * s.k.Weights[4*9+4])
	assert.Equal(t, led.RGB{R: want, G: want, B: want}, v)
	assert.Less(t, v.R, uint8(20), "a single hot pixel must not dominate")
}

func TestSampleWindowStaysInsideFrame(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 10))
	fill(img, image.Rect(0, 0, 11, 10), color.RGBA{R: 255, A: 255})
	fill(img, image.Rect(11, 0, 20, 10), color.RGBA{B: 255, A: 255})

	s, err := New(9, 3)
	require.NoError(t, err)
	got := s.Sample(img, geo(layout.Bottom, image.Pt(19, 9), image.Pt(0, 0)))[layout.Bottom]
	assert.Equal(t, led.RGB{B: 255}, got[0])
	assert.Equal(t, led.RGB{R: 255}, got[1])
}

func TestSampleFrameSmallerThanKernel(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	fill(img, img.Bounds(), color.RGBA{G: 77, A: 255})
	s, err := New(9, 3)
	require.NoError(t, err)
	assert.Equal(t, led.RGB{G: 77}, s.Sample(img, geo(layout.Right, image.Pt(2, 1)))[layout.Right][0])
}

func TestSampleYCbCrAndGenericPaths(t *testing.T) {
	yc := image.NewYCbCr(image.Rect(0, 0, 16, 16), image.YCbCrSubsampleRatio444)
	for i := range yc.Y {
		yc.Y[i], yc.Cb[i], yc.Cr[i] = 120, 90, 180
	}
	r, g, b := color.YCbCrToRGB(120, 90, 180)

	s, err := New(5, 1)
	require.NoError(t, err)
	assert.Equal(t, led.RGB{R: r, G: g, B: b}, s.Sample(yc, geo(layout.Top, image.Pt(8, 8)))[layout.Top][0])

	gray := image.NewGray(image.Rect(0, 0, 16, 16))
	for i := range gray.Pix {
		gray.Pix[i] = 99
	}
	assert.Equal(t, led.RGB{R: 99, G: 99, B: 99}, s.Sample(gray, geo(layout.Top, image.Pt(3, 3)))[layout.Top][0])
}

func TestSampleIntoReusesSlices(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	s, err := New(3, 1)
	require.NoError(t, err)
	g := geo(layout.Top, image.Pt(1, 1), image.Pt(2, 2))

	dst := s.Sample(img, g)
	first := &dst[layout.Top][0]
	dst = s.SampleInto(dst, img, g)
	assert.Same(t, first, &dst[layout.Top][0])
}
