package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/backlight/internal/diagnostics"
	"github.com/coreman2200/backlight/internal/handoff"
	"github.com/coreman2200/backlight/internal/led"
	"github.com/coreman2200/backlight/internal/smoother"
)

// RenderTiming controls how the render loop waits for new colors.
type RenderTiming struct {
	// FrameWait is the wait once the strip has settled on its target.
	FrameWait time.Duration
	// IdleWait is the wait while still blending toward the last target.
	IdleWait time.Duration
	// MaxIdleCycles is how many blend steps run without a new color set
	// before the strip holds steady. Zero disables idle blending.
	MaxIdleCycles int
}

// Render owns the smoother and the strip. It runs for the whole process
// lifetime and gates output on the powered flag.
type Render struct {
	in       *handoff.Slot[led.EdgeColors]
	smooth   *smoother.Smoother
	strip    *led.Strip
	powered  *atomic.Bool
	timing   RenderTiming
	observer Observer

	shown     atomic.Uint64
	idleSteps atomic.Uint64
}

func NewRender(in *handoff.Slot[led.EdgeColors], sm *smoother.Smoother, strip *led.Strip, powered *atomic.Bool, t RenderTiming, obs Observer) *Render {
	if t.FrameWait <= 0 {
		t.FrameWait = 100 * time.Millisecond
	}
	if t.IdleWait <= 0 {
		t.IdleWait = t.FrameWait
	}
	return &Render{in: in, smooth: sm, strip: strip, powered: powered, timing: t, observer: obs}
}

// Run loops until ctx is done. A failed strip write is fatal.
func (r *Render) Run(ctx context.Context) error {
	idle := r.timing.MaxIdleCycles // settled
	on := r.powered.Load()
	first := true
	for ctx.Err() == nil {
		if now := r.powered.Load(); first || now != on {
			resumed := !first && now
			first = false
			on = now
			r.smooth.SetPowered(on)
			log.Info().Bool("powered", on).Msg("render gate")
			switch {
			case !on:
				r.strip.Fill(led.Black)
				if err := r.show(); err != nil {
					return err
				}
			case resumed:
				// held colors go back out without waiting for the camera
				idle = 0
				r.strip.SetEdges(r.smooth.Step())
				if err := r.show(); err != nil {
					return err
				}
			}
		}

		wait := r.timing.FrameWait
		if idle < r.timing.MaxIdleCycles {
			wait = r.timing.IdleWait
		}
		var out led.EdgeColors
		if cs, ok := r.in.Take(ctx, wait); ok {
			out = r.smooth.Update(cs)
			idle = 0
		} else if idle < r.timing.MaxIdleCycles {
			out = r.smooth.Step()
			idle++
			r.idleSteps.Add(1)
		} else {
			continue
		}

		if !on {
			continue
		}
		r.strip.SetEdges(out)
		if err := r.show(); err != nil {
			return err
		}
	}
	return nil
}

func (r *Render) show() error {
	if err := r.strip.Show(); err != nil {
		return diagnostics.Unavailable("strip", err)
	}
	r.shown.Add(1)
	if r.observer != nil {
		r.observer.ObserveStrip(r.strip.Frame())
	}
	return nil
}
