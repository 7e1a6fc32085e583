package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/backlight/internal/camera"
	"github.com/coreman2200/backlight/internal/frame"
	"github.com/coreman2200/backlight/internal/geometry"
	"github.com/coreman2200/backlight/internal/handoff"
	"github.com/coreman2200/backlight/internal/layout"
	"github.com/coreman2200/backlight/internal/led"
	"github.com/coreman2200/backlight/internal/power"
	"github.com/coreman2200/backlight/internal/sampler"
	"github.com/coreman2200/backlight/internal/smoother"
)

// DefaultPollInterval is how often the power input is read.
const DefaultPollInterval = 300 * time.Millisecond

// Config wires a Coordinator.
type Config struct {
	Open     camera.Opener
	Camera   camera.Settings
	Power    power.Source
	Decoder  frame.Decoder
	Sampler  *sampler.Sampler
	Geometry map[layout.Edge]geometry.EdgeGeometry
	Strip    *led.Strip
	Smoother *smoother.Smoother
	Observer Observer // optional

	PollInterval time.Duration
	ProcessWait  time.Duration
	Render       RenderTiming
}

// Coordinator owns shutdown and the power watch. The camera only runs while
// the monitor is on: a power-on edge opens it and starts capture and
// processing, a power-off edge stops both and releases it. The render loop
// runs throughout so the strip can blank and later resume from held colors.
type Coordinator struct {
	cfg     Config
	frames  *handoff.Slot[frame.Frame]
	colors  *handoff.Slot[led.EdgeColors]
	powered atomic.Bool
	render  *Render
	errc    chan error

	mu       sync.Mutex
	sess     *session
	sessions atomic.Uint64
}

type session struct {
	id        uuid.UUID
	dev       camera.Device
	proc      *Processor
	stopCap   context.CancelFunc
	stopProc  context.CancelFunc
	capDone   chan struct{}
	procDone  chan struct{}
	startedAt time.Time
}

func New(cfg Config) (*Coordinator, error) {
	switch {
	case cfg.Open == nil:
		return nil, errors.New("pipeline: no camera opener")
	case cfg.Power == nil:
		return nil, errors.New("pipeline: no power source")
	case cfg.Decoder == nil || cfg.Sampler == nil:
		return nil, errors.New("pipeline: no decoder or sampler")
	case cfg.Strip == nil || cfg.Smoother == nil:
		return nil, errors.New("pipeline: no strip or smoother")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	c := &Coordinator{
		cfg:    cfg,
		frames: handoff.New[frame.Frame](),
		colors: handoff.New[led.EdgeColors](),
		errc:   make(chan error, 4),
	}
	c.render = NewRender(c.colors, cfg.Smoother, cfg.Strip, &c.powered, cfg.Render, cfg.Observer)
	return c, nil
}

// Powered reports the gate the render loop follows.
func (c *Coordinator) Powered() bool { return c.powered.Load() }

// Run blocks until ctx is done or a stage fails. On return capture has been
// stopped and joined, then rendering, and the strip and camera are released.
func (c *Coordinator) Run(ctx context.Context) (err error) {
	renderCtx, stopRender := context.WithCancel(context.WithoutCancel(ctx))
	renderDone := make(chan struct{})
	go func() {
		defer close(renderDone)
		if rerr := c.render.Run(renderCtx); rerr != nil {
			c.fail(rerr)
		}
	}()

	defer func() {
		c.stopSession()
		stopRender()
		<-renderDone
		if cerr := c.cfg.Strip.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close strip: %w", cerr))
		}
		log.Info().Msg("pipeline stopped")
	}()

	on := false
	poll := func() error {
		now := c.cfg.Power.ReadDebounced()
		if now == on {
			return nil
		}
		on = now
		if now {
			c.powered.Store(true)
			return c.startSession(ctx)
		}
		c.powered.Store(false)
		c.stopSession()
		return nil
	}

	if err := poll(); err != nil {
		return err
	}
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-c.errc:
			return err
		case <-ticker.C:
			if err := poll(); err != nil {
				return err
			}
		}
	}
}

func (c *Coordinator) fail(err error) {
	select {
	case c.errc <- err:
	default:
	}
}

func (c *Coordinator) startSession(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess != nil {
		return nil
	}
	id := uuid.New()
	dev, err := c.cfg.Open(ctx, c.cfg.Camera)
	if err != nil {
		return fmt.Errorf("open camera: %w", err)
	}

	// processing outlives a cancelled root until capture has been joined
	capCtx, stopCap := context.WithCancel(ctx)
	procCtx, stopProc := context.WithCancel(context.WithoutCancel(ctx))
	s := &session{
		id:        id,
		dev:       dev,
		proc:      NewProcessor(c.frames, c.colors, c.cfg.Decoder, c.cfg.Sampler, c.cfg.Geometry, c.cfg.ProcessWait),
		stopCap:   stopCap,
		stopProc:  stopProc,
		capDone:   make(chan struct{}),
		procDone:  make(chan struct{}),
		startedAt: time.Now(),
	}
	capture := NewCapture(dev, c.frames, c.cfg.Observer)
	go func() {
		defer close(s.capDone)
		if err := capture.Run(capCtx); err != nil {
			c.fail(err)
		}
	}()
	go func() {
		defer close(s.procDone)
		s.proc.Run(procCtx)
	}()
	c.sess = s
	c.sessions.Add(1)
	log.Info().Str("session", id.String()).Str("camera", c.cfg.Camera.Device).Msg("power on: capture started")
	return nil
}

// stopSession stops capture first and joins it, then processing, then
// closes the camera. It is a no-op without a running session.
func (c *Coordinator) stopSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.sess
	if s == nil {
		return
	}
	s.stopCap()
	<-s.capDone
	s.stopProc()
	<-s.procDone
	if err := s.dev.Close(); err != nil {
		log.Warn().Err(err).Str("session", s.id.String()).Msg("close camera")
	}
	c.frames.Reset()
	c.sess = nil
	log.Info().
		Str("session", s.id.String()).
		Dur("uptime", time.Since(s.startedAt)).
		Uint64("frames", s.proc.processed.Load()).
		Uint64("decode_errors", s.proc.decodeErrors.Load()).
		Msg("power off: capture stopped")
}

// Stats is a snapshot for the health endpoint.
type Stats struct {
	Powered      bool          `json:"powered"`
	Session      string        `json:"session,omitempty"`
	Sessions     uint64        `json:"sessions"`
	Frames       handoff.Stats `json:"frames"`
	Colors       handoff.Stats `json:"colors"`
	Processed    uint64        `json:"processed"`
	DecodeErrors uint64        `json:"decode_errors"`
	Shown        uint64        `json:"shown"`
	IdleSteps    uint64        `json:"idle_steps"`
}

func (c *Coordinator) Stats() Stats {
	st := Stats{
		Powered:   c.powered.Load(),
		Sessions:  c.sessions.Load(),
		Frames:    c.frames.Stats(),
		Colors:    c.colors.Stats(),
		Shown:     c.render.shown.Load(),
		IdleSteps: c.render.idleSteps.Load(),
	}
	c.mu.Lock()
	if s := c.sess; s != nil {
		st.Session = s.id.String()
		st.Processed = s.proc.processed.Load()
		st.DecodeErrors = s.proc.decodeErrors.Load()
	}
	c.mu.Unlock()
	return st
}
