// calibcheck resolves the calibration in a config file and prints the sample
// pixel chosen for every LED. Given a reference frame it also writes an
// annotated copy so the placement can be checked by eye.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/coreman2200/backlight/internal/config"
	"github.com/coreman2200/backlight/internal/diagnostics"
	"github.com/coreman2200/backlight/internal/geometry"
	"github.com/coreman2200/backlight/internal/layout"
)

var edgeColors = map[layout.Edge]color.RGBA{
	layout.Top:    {R: 255, A: 255},
	layout.Right:  {G: 255, A: 255},
	layout.Bottom: {B: 255, A: 255},
	layout.Left:   {R: 255, G: 255, A: 255},
}

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		refPath    = flag.String("image", "", "reference frame (JPEG or PNG) to annotate")
		outPath    = flag.String("out", "calibration.png", "annotated output PNG")
		quiet      = flag.Bool("q", false, "only report errors")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg, err := config.Load(*configPath)
	if err != nil {
		fail(err)
	}
	l, err := cfg.Layout()
	if err != nil {
		fail(err)
	}
	geo, err := geometry.Resolve(cfg.ControlPoints(), l.Counts, geometry.Options{
		Discount: cfg.Calibration.PerspectiveDiscount,
		Reversed: l.Reversed,
		Bounds:   cfg.FrameBounds(),
	})
	if err != nil {
		fail(err)
	}

	if !*quiet {
		for _, e := range l.Order {
			g := geo[e]
			r := l.Range(e)
			fmt.Printf("%s: %d leds (strip %d..%d) length %.1fpx reversed=%v\n", e, r.Count, r.Start, r.End()-1, g.Length, g.Reversed)
			for i, p := range g.Points {
				fmt.Printf("  %3d (%d,%d)\n", r.Start+i, p.X, p.Y)
			}
		}
	}

	if *refPath == "" {
		return
	}
	img, err := readImage(*refPath)
	if err != nil {
		fail(err)
	}
	out := annotate(img, l, geo, cfg.ControlPoints())
	f, err := os.Create(*outPath)
	if err != nil {
		fail(err)
	}
	defer f.Close()
	if err := png.Encode(f, out); err != nil {
		fail(err)
	}
	log.Info().Str("out", *outPath).Msg("annotated reference written")
}

func readImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// annotate marks control points with hollow squares, sample pixels with
// crosses, and labels each edge next to its first LED.
func annotate(src image.Image, l layout.Layout, geo map[layout.Edge]geometry.EdgeGeometry, control map[layout.Edge][]image.Point) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)

	for _, e := range l.Order {
		c := edgeColors[e]
		for _, p := range control[e] {
			square(dst, p, 4, c)
		}
		g := geo[e]
		for _, p := range g.Points {
			cross(dst, p, 3, c)
		}
		if len(g.Points) > 0 {
			label(dst, g.Points[0].Add(image.Pt(6, -6)), fmt.Sprintf("%s %d", e, l.Range(e).Start), c)
		}
	}
	return dst
}

func cross(img *image.RGBA, p image.Point, r int, c color.RGBA) {
	for d := -r; d <= r; d++ {
		img.SetRGBA(p.X+d, p.Y, c)
		img.SetRGBA(p.X, p.Y+d, c)
	}
}

func square(img *image.RGBA, p image.Point, r int, c color.RGBA) {
	for d := -r; d <= r; d++ {
		img.SetRGBA(p.X+d, p.Y-r, c)
		img.SetRGBA(p.X+d, p.Y+r, c)
		img.SetRGBA(p.X-r, p.Y+d, c)
		img.SetRGBA(p.X+r, p.Y+d, c)
	}
}

func label(img *image.RGBA, at image.Point, s string, c color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(at.X, at.Y),
	}
	d.DrawString(s)
}

func fail(err error) {
	fmt.Fprint(os.Stderr, diagnostics.Explain(err).String())
	os.Exit(1)
}
