//go:build !linux || !ws2811

package led

import "errors"

var errNoPWM = errors.New("pwm driver not compiled in; rebuild on linux with -tags ws2811")

type PWM struct{}

func NewPWM(gpio int, count int, colorOrder string) (*PWM, error) {
	return nil, errNoPWM
}

func (p *PWM) Write(rgb []byte) error { return errNoPWM }
func (p *PWM) Close() error          { return nil }
