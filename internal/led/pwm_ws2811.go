//go:build linux && ws2811

package led

/*
#cgo LDFLAGS: -lws2811
#include <stdlib.h>
#include <stdint.h>
#include <ws2811/ws2811.h>
*/
import "C"
import (
	"fmt"
	"sync"
	"unsafe"
)

// PWM drives a WS281x chain from a Raspberry Pi PWM/PCM pin through the
// rpi_ws281x C library. Build with -tags ws2811.
type PWM struct {
	gpio  int
	count int

	mu  sync.Mutex
	dev *C.ws2811_t
	buf unsafe.Pointer
}

func NewPWM(gpio int, count int, colorOrder string) (*PWM, error) {
	if count <= 0 {
		return nil, fmt.Errorf("invalid LED count: %d", count)
	}
	p := &PWM{gpio: gpio, count: count}

	p.dev = (*C.ws2811_t)(C.calloc(1, C.size_t(unsafe.Sizeof(*p.dev))))
	if p.dev == nil {
		return nil, fmt.Errorf("calloc ws2811_t failed")
	}
	p.dev.freq = 800000
	p.dev.dmanum = 10

	ch := &p.dev.channel[0]
	ch.gpionum = C.int(gpio)
	ch.count = C.int(count)
	ch.invert = 0
	switch colorOrder {
	case "RGB":
		ch.strip_type = C.WS2811_STRIP_RGB
	case "BRG":
		ch.strip_type = C.WS2811_STRIP_BRG
	default:
		ch.strip_type = C.WS2811_STRIP_GRB
	}
	// brightness is applied by Strip's post stage
	ch.brightness = 255

	if st := C.ws2811_init(p.dev); st != C.WS2811_SUCCESS {
		C.free(unsafe.Pointer(p.dev))
		p.dev = nil
		return nil, fmt.Errorf("ws2811_init failed: %d", int(st))
	}
	p.buf = unsafe.Pointer(ch.leds)
	return p, nil
}

func (p *PWM) Write(rgb []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dev == nil {
		return fmt.Errorf("pwm not initialized")
	}
	if len(rgb) != p.count*3 {
		return fmt.Errorf("rgb length %d does not match count %d", len(rgb), p.count)
	}
	// 0x00RRGGBB; strip_type handles the wire order.
	leds := (*[1 << 26]C.ws2811_led_t)(p.buf)[:p.count:p.count]
	for i := 0; i < p.count; i++ {
		leds[i] = C.ws2811_led_t(uint32(rgb[i*3])<<16 | uint32(rgb[i*3+1])<<8 | uint32(rgb[i*3+2]))
	}
	if st := C.ws2811_render(p.dev); st != C.WS2811_SUCCESS {
		return fmt.Errorf("ws2811_render failed: %d", int(st))
	}
	return nil
}

func (p *PWM) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dev != nil {
		C.ws2811_fini(p.dev)
		C.free(unsafe.Pointer(p.dev))
		p.dev = nil
	}
	return nil
}
