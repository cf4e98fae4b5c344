// Package tracking implements the scan/track control core: a grid scan
// planner, a proportional tracking controller, and the monitoring cycle
// state machine that drives them.
package tracking

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/petwatch/go-petwatch/pkg/camera"
)

// ErrConfig is returned for invalid control parameters. It is the only
// error class that prevents the system from starting.
var ErrConfig = errors.New("tracking: invalid configuration")

// smoothingRefStep is the nominal control period the smoothing alpha is
// defined against. The loop period is not fixed, so the effective
// coefficient is corrected by the measured step time.
const smoothingRefStep = 100 * time.Millisecond

// Gains holds the proportional control calibration.
type Gains struct {
	KpPan  float64 // Degrees per pixel of horizontal error
	KpTilt float64 // Degrees per pixel of vertical error

	// DeadbandPx suppresses corrections for errors at or below this
	// magnitude, preventing servo buzz from detector noise.
	DeadbandPx int

	// SmoothingAlpha, when positive, exponentially smooths the per-step
	// angle delta (not the absolute angle). Zero disables smoothing.
	SmoothingAlpha float64

	// PanDirection and TiltDirection are mount calibration signs (+1/-1).
	// With both at +1, a target right of center decreases pan and a
	// target below center increases tilt.
	PanDirection  float64
	TiltDirection float64
}

// Config holds all tunable parameters for one monitoring cycle.
type Config struct {
	Gains Gains
	Frame camera.Geometry

	// Scan grid
	ScanPanSteps  int
	ScanTiltSteps int
	ScanPanMin    float64
	ScanPanMax    float64
	ScanTiltMin   float64
	ScanTiltMax   float64

	// Dwell after commanding a waypoint, letting the servo settle before
	// the frame is evaluated. Tilt carries the camera's inertia and gets
	// the longer pause.
	PanDwell  time.Duration
	TiltDwell time.Duration

	// Tracking
	TrackInterval    time.Duration // Nominal pacing of the tracking loop
	TrackingDuration time.Duration // Track this long before capturing
	LostTimeout      time.Duration // Grace period after the last sighting

	// Capture
	CaptureCount    int
	CaptureInterval time.Duration

	// MaxHardwareErrors aborts the cycle after this many consecutive
	// failed servo commands.
	MaxHardwareErrors int
}

// DefaultConfig returns the recommended configuration for the reference
// mount (SG90 servos, 640x480 camera).
func DefaultConfig() Config {
	return Config{
		Gains: Gains{
			KpPan:         0.02,
			KpTilt:        0.02,
			DeadbandPx:    10,
			PanDirection:  1,
			TiltDirection: 1,
		},
		Frame: camera.Geometry{Width: 640, Height: 480},

		ScanPanSteps:  9,
		ScanTiltSteps: 5,
		ScanPanMin:    0,
		ScanPanMax:    180,
		ScanTiltMin:   30,
		ScanTiltMax:   150,

		PanDwell:  200 * time.Millisecond,
		TiltDwell: 300 * time.Millisecond,

		TrackInterval:    100 * time.Millisecond, // 10 Hz nominal
		TrackingDuration: 8 * time.Second,
		LostTimeout:      2 * time.Second,

		CaptureCount:    3,
		CaptureInterval: 500 * time.Millisecond,

		MaxHardwareErrors: 3,
	}
}

// Validate fails fast on parameters the control math cannot run with.
func (c Config) Validate() error {
	for name, v := range map[string]float64{
		"KpPan":          c.Gains.KpPan,
		"KpTilt":         c.Gains.KpTilt,
		"SmoothingAlpha": c.Gains.SmoothingAlpha,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrConfig, name)
		}
	}
	if c.Gains.KpPan < 0 || c.Gains.KpTilt < 0 {
		return fmt.Errorf("%w: negative gain", ErrConfig)
	}
	if c.Gains.DeadbandPx < 0 {
		return fmt.Errorf("%w: negative deadband %d", ErrConfig, c.Gains.DeadbandPx)
	}
	if c.Gains.SmoothingAlpha < 0 || c.Gains.SmoothingAlpha > 1 {
		return fmt.Errorf("%w: smoothing alpha %v outside [0,1]", ErrConfig, c.Gains.SmoothingAlpha)
	}
	if c.Gains.PanDirection*c.Gains.PanDirection != 1 || c.Gains.TiltDirection*c.Gains.TiltDirection != 1 {
		return fmt.Errorf("%w: direction signs must be +1 or -1", ErrConfig)
	}
	if c.Frame.Width <= 0 || c.Frame.Height <= 0 {
		return fmt.Errorf("%w: frame geometry %dx%d", ErrConfig, c.Frame.Width, c.Frame.Height)
	}
	if c.ScanPanSteps < 1 || c.ScanTiltSteps < 1 {
		return fmt.Errorf("%w: scan grid %dx%d", ErrConfig, c.ScanPanSteps, c.ScanTiltSteps)
	}
	if c.ScanPanMin > c.ScanPanMax || c.ScanTiltMin > c.ScanTiltMax {
		return fmt.Errorf("%w: inverted scan range", ErrConfig)
	}
	if c.TrackingDuration <= 0 || c.LostTimeout <= 0 {
		return fmt.Errorf("%w: non-positive tracking duration or lost timeout", ErrConfig)
	}
	if c.CaptureCount < 1 {
		return fmt.Errorf("%w: capture count %d", ErrConfig, c.CaptureCount)
	}
	if c.MaxHardwareErrors < 1 {
		return fmt.Errorf("%w: max hardware errors %d", ErrConfig, c.MaxHardwareErrors)
	}
	return nil
}
