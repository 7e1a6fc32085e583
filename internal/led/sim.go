package led

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Sim is a headless driver. It keeps the last frame and logs a compact
// summary every LogEvery frames (0 disables logging).
type Sim struct {
	LogEvery int

	mu     sync.Mutex
	frames int
	last   []byte
	closed bool
}

func NewSim() *Sim { return &Sim{LogEvery: 30} }

func (d *Sim) Write(rgb []byte) error {
	d.mu.Lock()
	d.frames++
	d.last = append(d.last[:0], rgb...)
	n := d.frames
	d.mu.Unlock()

	if d.LogEvery > 0 && n%d.LogEvery == 0 {
		avg := average(rgb)
		ev := log.Debug().Int("frame", n).Str("avg", avg.String())
		if len(rgb) >= 3 {
			ev = ev.Str("first", RGB{rgb[0], rgb[1], rgb[2]}.String())
		}
		ev.Msg("sim strip")
	}
	return nil
}

// Last returns a copy of the most recent frame and the number of frames written.
func (d *Sim) Last() ([]byte, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.last...), d.frames
}

func (d *Sim) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *Sim) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

func average(rgb []byte) RGB {
	n := len(rgb) / 3
	if n == 0 {
		return Black
	}
	var r, g, b int
	for i := 0; i < n; i++ {
		r += int(rgb[i*3])
		g += int(rgb[i*3+1])
		b += int(rgb[i*3+2])
	}
	return RGB{uint8(r / n), uint8(g / n), uint8(b / n)}
}
