package config

import (
	"errors"
	"fmt"
	"image"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/coreman2200/backlight/internal/layout"
)

type Camera struct {
	Device  string `yaml:"device"` // e.g. /dev/video0
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	FPS     int    `yaml:"fps"`
	Decoder string `yaml:"decoder"` // "jpeg" | "gocv"
}

type SPI struct {
	Port    string `yaml:"port"`     // periph port name, "" = first available
	FreqKHz int    `yaml:"freq_khz"` // e.g. 2500
}

type Strip struct {
	Driver     string  `yaml:"driver"` // "spi" | "pwm" | "console" | "sim"
	GPIO       int     `yaml:"gpio"`   // PWM data pin (BCM number)
	ColorOrder string  `yaml:"color_order"`
	Brightness float64 `yaml:"brightness"`
	WhiteCap   float64 `yaml:"white_cap"`
	BudgetMA   float64 `yaml:"budget_ma"`
	SPI        SPI     `yaml:"spi,omitempty"`
}

type LEDs struct {
	Order    []layout.Edge        `yaml:"order"`
	Counts   map[layout.Edge]int  `yaml:"counts"`
	Reversed map[layout.Edge]bool `yaml:"reversed,omitempty"`
}

type Point struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

type Calibration struct {
	FrameWidth  int                     `yaml:"frame_width"`
	FrameHeight int                     `yaml:"frame_height"`
	Points      map[layout.Edge][]Point `yaml:"points"`
	// PerspectiveDiscount scales the longer vertical edge before spacing
	// the horizontal edges; 1 disables it.
	PerspectiveDiscount float64 `yaml:"perspective_discount"`
}

type Sampler struct {
	KernelSize int     `yaml:"kernel_size"`
	Sigma      float64 `yaml:"sigma"`
}

type Smoothing struct {
	Alpha         float64 `yaml:"alpha"`
	MaxIdleCycles int     `yaml:"max_idle_cycles"`
	FrameWaitMs   int     `yaml:"frame_wait_ms"`
	IdleWaitMs    int     `yaml:"idle_wait_ms"`
}

type Power struct {
	Source     string `yaml:"source"` // "gpio" | "always"
	Pin        string `yaml:"pin"`
	DebounceMs int    `yaml:"debounce_ms"`
	PollMs     int    `yaml:"poll_ms"`
}

type Preview struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type Config struct {
	Camera      Camera      `yaml:"camera"`
	Strip       Strip       `yaml:"strip"`
	LEDs        LEDs        `yaml:"leds"`
	Calibration Calibration `yaml:"calibration"`
	Sampler     Sampler     `yaml:"sampler"`
	Smoothing   Smoothing   `yaml:"smoothing"`
	Power       Power       `yaml:"power"`
	Preview     Preview     `yaml:"preview"`
}

// Defaults returns a config with every tunable filled in. Calibration points
// and LED counts have no sensible default.
func Defaults() *Config {
	return &Config{
		Camera: Camera{Device: "/dev/video0", Width: 640, Height: 480, FPS: 30, Decoder: "jpeg"},
		Strip: Strip{
			Driver:     "spi",
			GPIO:       18,
			ColorOrder: "GRB",
			Brightness: 0.5,
			SPI:        SPI{FreqKHz: 2500},
		},
		LEDs:        LEDs{Order: []layout.Edge{layout.Bottom, layout.Left, layout.Top, layout.Right}},
		Calibration: Calibration{PerspectiveDiscount: 1},
		Sampler:     Sampler{KernelSize: 9, Sigma: 3},
		Smoothing:   Smoothing{Alpha: 0.5, MaxIdleCycles: 10, FrameWaitMs: 100, IdleWaitMs: 33},
		Power:       Power{Source: "gpio", Pin: "GPIO17", DebounceMs: 50, PollMs: 300},
		Preview:     Preview{Enabled: true, Addr: ":8081"},
	}
}

// Load reads path over Defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Defaults()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Validate reports every problem found, not just the first.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) { errs = append(errs, fmt.Errorf(format, args...)) }

	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		bad("camera: resolution must be positive, got %dx%d", c.Camera.Width, c.Camera.Height)
	}
	if c.Camera.FPS <= 0 {
		bad("camera: fps must be positive")
	}
	switch c.Strip.Driver {
	case "spi", "pwm", "console", "sim":
	default:
		bad("strip: unknown driver %q", c.Strip.Driver)
	}
	if c.Strip.Brightness < 0 || c.Strip.Brightness > 1 {
		bad("strip: brightness must be within 0..1")
	}
	if _, err := c.Layout(); err != nil {
		bad("leds: %v", err)
	}
	for _, e := range layout.Edges {
		if n := len(c.Calibration.Points[e]); n < 4 {
			bad("calibration: edge %s has %d points, need at least 4", e, n)
		}
	}
	if d := c.Calibration.PerspectiveDiscount; d <= 0 || d > 1 {
		bad("calibration: perspective_discount must be within (0,1], got %g", d)
	}
	if k := c.Sampler.KernelSize; k <= 0 || k%2 == 0 {
		bad("sampler: kernel_size must be odd and positive, got %d", k)
	}
	if c.Sampler.Sigma <= 0 {
		bad("sampler: sigma must be positive")
	}
	if a := c.Smoothing.Alpha; a <= 0 || a > 1 {
		bad("smoothing: alpha must be within (0,1], got %g", a)
	}
	if c.Smoothing.MaxIdleCycles < 0 || c.Smoothing.FrameWaitMs < 0 || c.Smoothing.IdleWaitMs < 0 {
		bad("smoothing: idle cycles and waits must not be negative")
	}
	switch c.Power.Source {
	case "always":
	case "gpio":
		if c.Power.Pin == "" {
			bad("power: gpio source needs a pin")
		}
	default:
		bad("power: unknown source %q", c.Power.Source)
	}
	if c.Power.PollMs <= 0 {
		bad("power: poll_ms must be positive")
	}
	return errors.Join(errs...)
}

// Layout builds the strip layout from the leds section.
func (c *Config) Layout() (layout.Layout, error) {
	return layout.New(c.LEDs.Order, c.LEDs.Counts, c.LEDs.Reversed)
}

// ControlPoints converts the calibration points to image coordinates.
func (c *Config) ControlPoints() map[layout.Edge][]image.Point {
	out := make(map[layout.Edge][]image.Point, len(c.Calibration.Points))
	for e, pts := range c.Calibration.Points {
		ps := make([]image.Point, len(pts))
		for i, p := range pts {
			ps[i] = image.Pt(p.X, p.Y)
		}
		out[e] = ps
	}
	return out
}

// FrameBounds is the reference frame the control points were marked on,
// falling back to the camera resolution.
func (c *Config) FrameBounds() image.Rectangle {
	w, h := c.Calibration.FrameWidth, c.Calibration.FrameHeight
	if w <= 0 || h <= 0 {
		w, h = c.Camera.Width, c.Camera.Height
	}
	return image.Rect(0, 0, w, h)
}

func (s Smoothing) FrameWait() time.Duration { return time.Duration(s.FrameWaitMs) * time.Millisecond }
func (s Smoothing) IdleWait() time.Duration  { return time.Duration(s.IdleWaitMs) * time.Millisecond }
func (p Power) Poll() time.Duration          { return time.Duration(p.PollMs) * time.Millisecond }
func (p Power) Debounce() time.Duration      { return time.Duration(p.DebounceMs) * time.Millisecond }
