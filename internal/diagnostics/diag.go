package diagnostics

import (
	"errors"
	"fmt"
	"strings"
)

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

// ErrDeviceUnavailable marks a camera or strip that could not be opened or
// stopped responding. The pipeline can not run without it.
var ErrDeviceUnavailable = errors.New("device unavailable")

type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// Unavailable wraps err so callers can match ErrDeviceUnavailable and names
// the device for the remediation text.
func Unavailable(device string, err error) error {
	return &DeviceError{Device: device, Err: err}
}

type DeviceError struct {
	Device string // "camera" or "strip"
	Err    error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Device, e.Err)
}

func (e *DeviceError) Unwrap() []error { return []error{ErrDeviceUnavailable, e.Err} }

// String renders the diagnostic for a terminal.
func (d Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s: %s\n", d.Severity, d.Code, d.Summary)
	if d.Detail != "" {
		fmt.Fprintf(&b, "  %s\n", d.Detail)
	}
	if len(d.LikelyCauses) > 0 {
		b.WriteString("  likely causes:\n")
		for _, c := range d.LikelyCauses {
			fmt.Fprintf(&b, "    - %s\n", c)
		}
	}
	if len(d.SuggestedFixes) > 0 {
		b.WriteString("  try:\n")
		for _, f := range d.SuggestedFixes {
			fmt.Fprintf(&b, "    - %s\n", f)
		}
	}
	return b.String()
}
