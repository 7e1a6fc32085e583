//go:build !linux || !cgo

package camera

import (
	"context"
	"errors"

	"github.com/coreman2200/backlight/internal/diagnostics"
)

// OpenV4L2 is only available on linux with cgo (go4vl needs it).
func OpenV4L2(ctx context.Context, s Settings) (Device, error) {
	return nil, diagnostics.Unavailable("camera", errors.New("v4l2 capture is not supported on this platform"))
}
