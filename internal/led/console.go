package led

import (
	"image"
	"image/color"

	"periph.io/x/conn/v3/display"
	"periph.io/x/extra/devices/screen"
)

// Console prints the strip as a row of ANSI colored cells on the terminal.
type Console struct {
	dev   display.Drawer
	img   *image.NRGBA
	count int
}

func NewConsole(count int) *Console {
	return &Console{
		dev:   screen.New(count),
		img:   image.NewNRGBA(image.Rect(0, 0, count, 1)),
		count: count,
	}
}

func (c *Console) Write(rgb []byte) error {
	for i := 0; i < c.count && i*3+2 < len(rgb); i++ {
		c.img.SetNRGBA(i, 0, color.NRGBA{R: rgb[i*3], G: rgb[i*3+1], B: rgb[i*3+2], A: 255})
	}
	return c.dev.Draw(c.img.Bounds(), c.img, image.Point{})
}

func (c *Console) Close() error { return c.dev.Halt() }
