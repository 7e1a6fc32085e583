//go:build gocv

package frame

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// GoCVDecoder decodes through OpenCV's imdecode. Build with -tags gocv.
type GoCVDecoder struct{}

func (GoCVDecoder) Decode(data []byte) (image.Image, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("%w: opencv returned an empty image", ErrDecode)
	}
	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

// NewDecoder picks the named decoder.
func NewDecoder(name string) (Decoder, error) {
	switch name {
	case "", "jpeg":
		return JPEGDecoder{}, nil
	case "gocv":
		return GoCVDecoder{}, nil
	}
	return nil, fmt.Errorf("unknown decoder %q", name)
}
