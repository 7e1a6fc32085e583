//go:build linux && cgo

package camera

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/vladimirvivien/go4vl/device"
	"github.com/vladimirvivien/go4vl/v4l2"

	"github.com/coreman2200/backlight/internal/diagnostics"
	"github.com/coreman2200/backlight/internal/frame"
)

// V4L2 streams MJPEG frames from a Video4Linux device.
type V4L2 struct {
	dev    io.Closer
	cancel context.CancelFunc
	out    <-chan []byte
	seq    atomic.Uint64
}

// OpenV4L2 opens and starts streaming. It satisfies Opener.
func OpenV4L2(ctx context.Context, s Settings) (Device, error) {
	dev, err := device.Open(s.Device,
		device.WithIOType(v4l2.IOTypeMMAP),
		device.WithPixFormat(v4l2.PixFormat{
			PixelFormat: v4l2.PixelFmtMJPEG,
			Width:       uint32(s.Width),
			Height:      uint32(s.Height),
			Field:       v4l2.FieldNone,
		}),
		device.WithFPS(uint32(s.FPS)),
	)
	if err != nil {
		return nil, diagnostics.Unavailable("camera", err)
	}

	sctx, cancel := context.WithCancel(ctx)
	if err := dev.Start(sctx); err != nil {
		cancel()
		_ = dev.Close()
		return nil, diagnostics.Unavailable("camera", err)
	}
	log.Info().
		Str("device", s.Device).
		Int("width", s.Width).
		Int("height", s.Height).
		Int("fps", s.FPS).
		Msg("camera streaming")
	return &V4L2{dev: dev, cancel: cancel, out: dev.GetOutput()}, nil
}

func (c *V4L2) NextFrame(ctx context.Context) (frame.Frame, error) {
	select {
	case <-ctx.Done():
		return frame.Frame{}, ctx.Err()
	case data, ok := <-c.out:
		if !ok {
			return frame.Frame{}, diagnostics.Unavailable("camera", errors.New("stream closed"))
		}
		// The driver buffer is recycled; publish an owned copy.
		return frame.Frame{
			Seq:       c.seq.Add(1),
			Timestamp: time.Now(),
			Data:      append([]byte(nil), data...),
		}, nil
	}
}

// Close stops the stream and releases the device. The stream goroutine only
// sees cancellation between sends, so the output is drained until it closes
// the channel; by then it has stopped streaming and unmapped its buffers.
func (c *V4L2) Close() error {
	c.cancel()
	for range c.out {
	}
	return c.dev.Close()
}
