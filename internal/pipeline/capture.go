// Package pipeline runs capture, sampling and strip refresh as separate
// goroutines joined by latest-wins hand-off slots.
package pipeline

import (
	"context"
	"fmt"

	"github.com/coreman2200/backlight/internal/camera"
	"github.com/coreman2200/backlight/internal/frame"
	"github.com/coreman2200/backlight/internal/handoff"
)

// Observer receives copies of pipeline output off the hot path. The preview
// server implements it. Implementations must not block.
type Observer interface {
	ObserveFrame(f frame.Frame)
	ObserveStrip(rgb []byte)
}

// Capture pulls frames from a camera and publishes the newest one.
type Capture struct {
	dev      camera.Device
	out      *handoff.Slot[frame.Frame]
	observer Observer
}

func NewCapture(dev camera.Device, out *handoff.Slot[frame.Frame], obs Observer) *Capture {
	return &Capture{dev: dev, out: out, observer: obs}
}

// Run loops until ctx is done. Shutdown is noticed at the next frame boundary.
// Any camera error other than cancellation ends the loop and is returned.
func (c *Capture) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		f, err := c.dev.NextFrame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("capture: %w", err)
		}
		c.out.Publish(f)
		if c.observer != nil {
			c.observer.ObserveFrame(f)
		}
	}
}
