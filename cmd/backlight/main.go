package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/coreman2200/backlight/internal/camera"
	"github.com/coreman2200/backlight/internal/config"
	"github.com/coreman2200/backlight/internal/diagnostics"
	"github.com/coreman2200/backlight/internal/frame"
	"github.com/coreman2200/backlight/internal/geometry"
	"github.com/coreman2200/backlight/internal/layout"
	"github.com/coreman2200/backlight/internal/led"
	"github.com/coreman2200/backlight/internal/pipeline"
	"github.com/coreman2200/backlight/internal/power"
	"github.com/coreman2200/backlight/internal/preview"
	"github.com/coreman2200/backlight/internal/sampler"
	"github.com/coreman2200/backlight/internal/smoother"
	"github.com/coreman2200/backlight/internal/testpattern"
)

func main() {
	// ---- Flags (config.yaml supplies everything else) ----
	var (
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		driver     = flag.String("driver", "", "override strip driver: spi | pwm | console | sim")
		device     = flag.String("device", "", "override camera device")
		simFrame   = flag.String("sim", "", "replay this JPEG instead of opening a camera; implies -driver sim and power always on")
		addr       = flag.String("addr", "", "override preview listen address")
		noPreview  = flag.Bool("no-preview", false, "disable the preview server")
		logLevel   = flag.String("log-level", "info", "zerolog level: debug | info | warn | error")
		pattern    = flag.String("test-pattern", "", "show a wiring pattern and exit: index_sweep | rgb_channels | edge_walk")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	if lvl, err := zerolog.ParseLevel(*logLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	} else {
		log.Warn().Str("level", *logLevel).Msg("unknown log level; using info")
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(fmt.Errorf("load config: %w", err))
	}
	if *driver != "" {
		cfg.Strip.Driver = *driver
	}
	if *device != "" {
		cfg.Camera.Device = *device
	}
	if *addr != "" {
		cfg.Preview.Addr = *addr
	}
	if *noPreview {
		cfg.Preview.Enabled = false
	}
	if *simFrame != "" {
		cfg.Strip.Driver = "sim"
		cfg.Power.Source = "always"
	}
	if err := cfg.Validate(); err != nil {
		fatal(fmt.Errorf("invalid config %s: %w", *configPath, err))
	}

	if _, err := host.Init(); err != nil {
		log.Warn().Err(err).Msg("periph host init failed; hardware drivers may be unavailable")
	}

	l, err := cfg.Layout()
	if err != nil {
		fatal(err)
	}
	geo, err := geometry.Resolve(cfg.ControlPoints(), l.Counts, geometry.Options{
		Discount: cfg.Calibration.PerspectiveDiscount,
		Reversed: l.Reversed,
		Bounds:   cfg.FrameBounds(),
	})
	if err != nil {
		fatal(err)
	}
	for _, e := range l.Order {
		g := geo[e]
		log.Debug().Str("edge", string(e)).Int("leds", len(g.Points)).Float64("length_px", g.Length).Msg("edge resolved")
	}

	smp, err := sampler.New(cfg.Sampler.KernelSize, cfg.Sampler.Sigma)
	if err != nil {
		fatal(err)
	}
	dec, err := frame.NewDecoder(cfg.Camera.Decoder)
	if err != nil {
		fatal(err)
	}

	drv, err := openDriver(cfg, l)
	if err != nil {
		fatal(err)
	}
	strip, err := led.NewStrip(drv, l, led.Post{
		Brightness: cfg.Strip.Brightness,
		WhiteCap:   cfg.Strip.WhiteCap,
		BudgetMA:   cfg.Strip.BudgetMA,
		Knee:       0.9,
	})
	if err != nil {
		fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *pattern != "" {
		k, err := testpattern.ParseKind(*pattern)
		if err != nil {
			fatal(err)
		}
		hold := 2 * time.Second
		if k == testpattern.IndexSweep {
			hold = 50 * time.Millisecond
		}
		err = testpattern.Run(ctx, k, l, strip, hold)
		if cerr := strip.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			fatal(diagnostics.Unavailable("strip", err))
		}
		return
	}

	var src power.Source
	switch cfg.Power.Source {
	case "gpio":
		g, err := power.OpenGPIO(cfg.Power.Pin, cfg.Power.Debounce())
		if err != nil {
			log.Warn().Err(err).Str("pin", cfg.Power.Pin).Msg("power input unavailable; treating monitor as always on")
			src = power.NewStatic(true)
		} else {
			src = g
		}
	default:
		src = power.NewStatic(true)
	}

	open := camera.Opener(camera.OpenV4L2)
	if *simFrame != "" {
		b, err := os.ReadFile(*simFrame)
		if err != nil {
			fatal(fmt.Errorf("read sim frame: %w", err))
		}
		fps := cfg.Camera.FPS
		open = camera.NewFake(time.Second/time.Duration(fps), b).Open
	}

	var pv *preview.Server
	var obs pipeline.Observer
	if cfg.Preview.Enabled {
		pv = preview.New(l)
		obs = pv
	}

	coord, err := pipeline.New(pipeline.Config{
		Open: open,
		Camera: camera.Settings{
			Device: cfg.Camera.Device,
			Width:  cfg.Camera.Width,
			Height: cfg.Camera.Height,
			FPS:    cfg.Camera.FPS,
		},
		Power:        src,
		Decoder:      dec,
		Sampler:      smp,
		Geometry:     geo,
		Strip:        strip,
		Smoother:     smoother.New(l.Counts, cfg.Smoothing.Alpha),
		Observer:     obs,
		PollInterval: cfg.Power.Poll(),
		Render: pipeline.RenderTiming{
			FrameWait:     cfg.Smoothing.FrameWait(),
			IdleWait:      cfg.Smoothing.IdleWait(),
			MaxIdleCycles: cfg.Smoothing.MaxIdleCycles,
		},
	})
	if err != nil {
		fatal(err)
	}

	if pv != nil {
		pv.Stats = func() any { return coord.Stats() }
		go func() {
			if err := pv.Run(ctx, cfg.Preview.Addr); err != nil {
				log.Warn().Err(err).Msg("preview server stopped")
			}
		}()
	}

	log.Info().
		Str("camera", cfg.Camera.Device).
		Str("driver", cfg.Strip.Driver).
		Int("leds", l.Count()).
		Str("power", cfg.Power.Source).
		Msg("backlight starting")

	if err := coord.Run(ctx); err != nil {
		fatal(err)
	}
}

// openDriver opens the configured strip driver. Hardware that can not be
// opened is fatal; the simulator only runs when asked for.
func openDriver(cfg *config.Config, l layout.Layout) (led.Driver, error) {
	switch cfg.Strip.Driver {
	case "spi":
		freq := physic.Frequency(cfg.Strip.SPI.FreqKHz) * physic.KiloHertz
		if freq <= 0 {
			freq = led.DefaultSPIFreq
		}
		d, err := led.OpenSPI(cfg.Strip.SPI.Port, l.Count(), freq)
		if err != nil {
			return nil, diagnostics.Unavailable("strip", err)
		}
		return d, nil
	case "pwm":
		d, err := led.NewPWM(cfg.Strip.GPIO, l.Count(), cfg.Strip.ColorOrder)
		if err != nil {
			return nil, diagnostics.Unavailable("strip", err)
		}
		return d, nil
	case "console":
		return led.NewConsole(l.Count()), nil
	case "sim":
		return led.NewSim(), nil
	}
	return nil, fmt.Errorf("unknown strip driver %q", cfg.Strip.Driver)
}

func fatal(err error) {
	log.Error().Err(err).Msg("backlight failed")
	fmt.Fprint(os.Stderr, diagnostics.Explain(err).String())
	os.Exit(1)
}
