package diagnostics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coreman2200/backlight/internal/geometry"
)

func TestUnavailableMatchesSentinel(t *testing.T) {
	cause := errors.New("no such file")
	err := fmt.Errorf("open: %w", Unavailable("camera", cause))
	assert.ErrorIs(t, err, ErrDeviceUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "camera unavailable")
}

func TestExplain(t *testing.T) {
	cases := map[string]error{
		"DEVICE.CAMERA": Unavailable("camera", errors.New("x")),
		"DEVICE.STRIP":  Unavailable("strip", errors.New("x")),
		"CALIB.POINTS":  fmt.Errorf("edge top: %w", geometry.ErrInsufficientControlPoints),
		"CALIB.CURVE":   geometry.ErrDegenerateCurve,
		"CALIB.RESOLVE": geometry.ErrGeometryResolutionFailed,
		"FATAL":         errors.New("boom"),
	}
	for code, err := range cases {
		d := Explain(err)
		assert.Equal(t, code, d.Code)
		assert.Equal(t, Err, d.Severity)
		assert.Contains(t, d.String(), code)
	}
}
