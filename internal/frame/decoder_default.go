//go:build !gocv

package frame

import "fmt"

// NewDecoder picks the named decoder. "gocv" needs a build with -tags gocv.
func NewDecoder(name string) (Decoder, error) {
	switch name {
	case "", "jpeg":
		return JPEGDecoder{}, nil
	case "gocv":
		return nil, fmt.Errorf("decoder %q not compiled in; rebuild with -tags gocv", name)
	}
	return nil, fmt.Errorf("unknown decoder %q", name)
}
