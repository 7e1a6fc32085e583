// Package frame carries raw camera frames and turns them into images.
package frame

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"time"
)

// ErrDecode marks a frame that could not be decoded. It is transient: the
// frame is skipped and the pipeline moves on.
var ErrDecode = errors.New("frame decode")

// Frame is one compressed image as delivered by the camera.
// Data must not be modified after the frame is published.
type Frame struct {
	Seq       uint64
	Timestamp time.Time
	Data      []byte
}

// Decoder turns compressed frame bytes into an image.
type Decoder interface {
	Decode(data []byte) (image.Image, error)
}

// JPEGDecoder decodes MJPEG frames with the standard library.
type JPEGDecoder struct{}

func (JPEGDecoder) Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty frame", ErrDecode)
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}
