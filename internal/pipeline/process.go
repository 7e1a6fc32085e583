package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/backlight/internal/frame"
	"github.com/coreman2200/backlight/internal/geometry"
	"github.com/coreman2200/backlight/internal/handoff"
	"github.com/coreman2200/backlight/internal/layout"
	"github.com/coreman2200/backlight/internal/led"
	"github.com/coreman2200/backlight/internal/sampler"
)

// DefaultProcessWait bounds how long the processor waits for a frame before
// re-checking for shutdown.
const DefaultProcessWait = 100 * time.Millisecond

// Processor decodes the newest frame and samples a color per LED.
type Processor struct {
	in      *handoff.Slot[frame.Frame]
	out     *handoff.Slot[led.EdgeColors]
	decoder frame.Decoder
	sampler *sampler.Sampler
	geo     map[layout.Edge]geometry.EdgeGeometry
	wait    time.Duration

	// decode failures are logged at most a few times per period
	warn zerolog.Logger

	processed    atomic.Uint64
	decodeErrors atomic.Uint64
}

func NewProcessor(in *handoff.Slot[frame.Frame], out *handoff.Slot[led.EdgeColors], dec frame.Decoder, s *sampler.Sampler, geo map[layout.Edge]geometry.EdgeGeometry, wait time.Duration) *Processor {
	if wait <= 0 {
		wait = DefaultProcessWait
	}
	return &Processor{
		in:      in,
		out:     out,
		decoder: dec,
		sampler: s,
		geo:     geo,
		wait:    wait,
		warn:    log.Logger.Sample(&zerolog.BurstSampler{Burst: 3, Period: 10 * time.Second}),
	}
}

// Run loops until ctx is done. Decode errors skip the frame.
func (p *Processor) Run(ctx context.Context) {
	for ctx.Err() == nil {
		f, ok := p.in.Take(ctx, p.wait)
		if !ok {
			continue
		}
		p.Process(f)
	}
}

// Process handles one frame and reports whether colors were published.
func (p *Processor) Process(f frame.Frame) bool {
	img, err := p.decoder.Decode(f.Data)
	if err != nil {
		n := p.decodeErrors.Add(1)
		p.warn.Warn().Err(err).Uint64("seq", f.Seq).Uint64("total", n).Msg("skipping frame")
		return false
	}
	// a fresh map per frame: the consumer keeps the previous one
	p.out.Publish(p.sampler.Sample(img, p.geo))
	p.processed.Add(1)
	return true
}
