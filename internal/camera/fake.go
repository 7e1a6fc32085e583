package camera

import (
	"context"
	"sync"
	"time"

	"github.com/coreman2200/backlight/internal/frame"
)

// Fake replays a fixed list of encoded frames in a loop. It backs -sim runs
// and pipeline tests, and counts how often it was opened and closed.
type Fake struct {
	Frames   [][]byte
	Interval time.Duration
	OpenErr  error

	mu     sync.Mutex
	opens  int
	closes int
}

func NewFake(interval time.Duration, frames ...[]byte) *Fake {
	return &Fake{Frames: frames, Interval: interval}
}

// Open satisfies Opener.
func (f *Fake) Open(ctx context.Context, s Settings) (Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.OpenErr != nil {
		return nil, f.OpenErr
	}
	f.opens++
	return &fakeDevice{owner: f}, nil
}

// Counts reports opens and closes so far.
func (f *Fake) Counts() (opens, closes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens, f.closes
}

type fakeDevice struct {
	owner *Fake
	seq   uint64
}

func (d *fakeDevice) NextFrame(ctx context.Context) (frame.Frame, error) {
	if d.owner.Interval > 0 {
		t := time.NewTimer(d.owner.Interval)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return frame.Frame{}, ctx.Err()
		case <-t.C:
		}
	} else if err := ctx.Err(); err != nil {
		return frame.Frame{}, err
	}
	var data []byte
	if n := len(d.owner.Frames); n > 0 {
		data = d.owner.Frames[int(d.seq)%n]
	}
	d.seq++
	return frame.Frame{Seq: d.seq, Timestamp: time.Now(), Data: data}, nil
}

func (d *fakeDevice) Close() error {
	d.owner.mu.Lock()
	d.owner.closes++
	d.owner.mu.Unlock()
	return nil
}
