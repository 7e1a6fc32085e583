package geometry

import "errors"

// Calibration input errors. All of them are fatal at startup and mean the
// control points have to be marked again.
var (
	ErrInsufficientControlPoints = errors.New("insufficient control points")
	ErrDegenerateCurve           = errors.New("degenerate curve")
	ErrGeometryResolutionFailed  = errors.New("geometry resolution failed")
)

// MinControlPoints is the smallest number of points a not-a-knot spline accepts.
const MinControlPoints = 4
