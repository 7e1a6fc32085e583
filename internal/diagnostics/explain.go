package diagnostics

import (
	"errors"

	"github.com/coreman2200/backlight/internal/geometry"
)

// Explain turns a fatal startup or runtime error into operator-facing
// remediation text.
func Explain(err error) Diagnostic {
	d := Diagnostic{Severity: Err, Code: "FATAL", Summary: "backlight stopped", Detail: err.Error()}

	var de *DeviceError
	switch {
	case errors.As(err, &de) && de.Device == "camera":
		d.Code = "DEVICE.CAMERA"
		d.Summary = "camera is not available"
		d.LikelyCauses = []string{
			"the webcam is unplugged or was reconnected under a different /dev/video node",
			"another process holds the device",
			"the camera does not offer MJPEG at the configured resolution",
		}
		d.SuggestedFixes = []string{
			"reconnect the camera and check `v4l2-ctl --list-devices`",
			"set camera.device in the config file",
			"rerun setup to capture a new reference frame",
		}
	case errors.As(err, &de):
		d.Code = "DEVICE.STRIP"
		d.Summary = "LED strip driver is not available"
		d.LikelyCauses = []string{
			"SPI is disabled (dtparam=spi=on) or the wrong port is configured",
			"the process lacks permission for /dev/spidev* or /dev/mem",
		}
		d.SuggestedFixes = []string{
			"reconnect the strip data line and power",
			"run with -driver sim to check the rest of the pipeline",
		}
	case errors.Is(err, geometry.ErrInsufficientControlPoints):
		d.Code = "CALIB.POINTS"
		d.Summary = "calibration needs at least 4 control points per edge"
		d.SuggestedFixes = []string{"rerun calibration and mark every edge"}
	case errors.Is(err, geometry.ErrDegenerateCurve):
		d.Code = "CALIB.CURVE"
		d.Summary = "control points do not form a usable curve"
		d.LikelyCauses = []string{"points were marked out of order or two share a coordinate"}
		d.SuggestedFixes = []string{"rerun calibration, placing points left to right or top to bottom"}
	case errors.Is(err, geometry.ErrGeometryResolutionFailed):
		d.Code = "CALIB.RESOLVE"
		d.Summary = "could not place one sample point per LED"
		d.LikelyCauses = []string{
			"an edge has more LEDs than camera pixels along it",
			"control points were marked in reverse",
			"points fall outside the camera frame",
		}
		d.SuggestedFixes = []string{"check the per-edge LED counts", "rerun calibration"}
	}
	return d
}
