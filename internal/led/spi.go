package led

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
)

// DefaultSPIFreq suits WS2812 strips driven through the SPI MOSI pin.
const DefaultSPIFreq = 2500 * physic.KiloHertz

// SPI drives a WS2812 chain over an SPI port using periph's NRZ encoder.
type SPI struct {
	port  spi.PortCloser
	dev   *nrzled.Dev
	count int
}

// OpenSPI opens the named SPI port ("" picks the first one registered). The
// host drivers must already be initialized with host.Init.
func OpenSPI(name string, count int, freq physic.Frequency) (*SPI, error) {
	p, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open spi port %q: %w", name, err)
	}
	s, err := NewSPI(p, count, freq)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	return s, nil
}

// NewSPI wraps an already opened port.
func NewSPI(p spi.PortCloser, count int, freq physic.Frequency) (*SPI, error) {
	if count <= 0 {
		return nil, fmt.Errorf("invalid LED count: %d", count)
	}
	if freq == 0 {
		freq = DefaultSPIFreq
	}
	d, err := nrzled.NewSPI(p, &nrzled.Opts{NumPixels: count, Channels: 3, Freq: freq})
	if err != nil {
		return nil, fmt.Errorf("nrzled: %w", err)
	}
	return &SPI{port: p, dev: d, count: count}, nil
}

func (s *SPI) String() string { return s.dev.String() }

func (s *SPI) Write(rgb []byte) error {
	if len(rgb) != s.count*3 {
		return fmt.Errorf("rgb length %d does not match count %d", len(rgb), s.count)
	}
	_, err := s.dev.Write(rgb)
	return err
}

func (s *SPI) Close() error {
	return errors.Join(s.dev.Halt(), s.port.Close())
}
