package tracking

import (
	"math"
	"time"

	"github.com/petwatch/go-petwatch/pkg/detect"
	"github.com/petwatch/go-petwatch/pkg/servo"
)

// Pose is a commanded pan/tilt angle pair in degrees.
type Pose struct {
	Pan  float64 `json:"pan"`
	Tilt float64 `json:"tilt"`
}

// Controller computes the next pose from a detection via proportional
// control with a pixel deadband. It is memoryless across steps except for
// the previous per-axis delta, which exists only to feed the optional
// smoothing term.
type Controller struct {
	gains   Gains
	centerX float64
	centerY float64

	prevDeltaPan  float64
	prevDeltaTilt float64
}

// NewController builds a controller for the configured gains and frame.
func NewController(cfg Config) *Controller {
	cx, cy := cfg.Frame.Center()
	return &Controller{
		gains:   cfg.Gains,
		centerX: cx,
		centerY: cy,
	}
}

// Reset clears the smoothing history. Call when a new tracking session
// opens so a stale delta cannot bleed into a fresh engagement.
func (c *Controller) Reset() {
	c.prevDeltaPan = 0
	c.prevDeltaTilt = 0
}

// Update returns the next pose for the detection. Axes whose error is
// within the deadband are returned unchanged. dt is the measured time
// since the previous control step; it only affects the smoothing
// coefficient, never the proportional term itself.
func (c *Controller) Update(prev Pose, det detect.Detection, dt time.Duration) Pose {
	errX := det.CenterX - c.centerX
	errY := det.CenterY - c.centerY
	deadband := float64(c.gains.DeadbandPx)

	next := prev

	if math.Abs(errX) > deadband {
		delta := -c.gains.PanDirection * c.gains.KpPan * errX
		delta = c.smooth(delta, &c.prevDeltaPan, dt)
		next.Pan = servo.Clamp(prev.Pan+delta, servo.MinAngle, servo.MaxAngle)
	}

	if math.Abs(errY) > deadband {
		delta := c.gains.TiltDirection * c.gains.KpTilt * errY
		delta = c.smooth(delta, &c.prevDeltaTilt, dt)
		next.Tilt = servo.Clamp(prev.Tilt+delta, servo.MinAngle, servo.MaxAngle)
	}

	return next
}

// smooth applies exponential smoothing to the per-step delta and records
// it for the next step. A no-op when smoothing is disabled.
func (c *Controller) smooth(delta float64, prev *float64, dt time.Duration) float64 {
	if c.gains.SmoothingAlpha <= 0 {
		return delta
	}
	a := effectiveAlpha(c.gains.SmoothingAlpha, dt)
	out := a*delta + (1-a)**prev
	*prev = out
	return out
}

// effectiveAlpha corrects the configured alpha for the measured step time.
// The configured value is defined against the nominal control period; a
// longer step weighs the new delta more, a shorter one less, keeping the
// smoothing time constant stable under scheduling jitter.
func effectiveAlpha(alpha float64, dt time.Duration) float64 {
	if dt <= 0 {
		return alpha
	}
	ratio := dt.Seconds() / smoothingRefStep.Seconds()
	return 1 - math.Pow(1-alpha, ratio)
}
