// Package camera opens the webcam pointed at the monitor and hands out
// compressed frames.
package camera

import (
	"context"

	"github.com/coreman2200/backlight/internal/frame"
)

// Settings selects the capture device and mode.
type Settings struct {
	Device string // e.g. /dev/video0
	Width  int
	Height int
	FPS    int
}

// Device produces frames until closed.
type Device interface {
	// NextFrame blocks until a frame is available or ctx is done.
	NextFrame(ctx context.Context) (frame.Frame, error)
	Close() error
}

// Opener opens a Device. It is called once per power-on session.
type Opener func(ctx context.Context, s Settings) (Device, error)
