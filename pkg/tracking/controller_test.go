package tracking

import (
	"math"
	"testing"
	"time"

	"github.com/petwatch/go-petwatch/pkg/camera"
	"github.com/petwatch/go-petwatch/pkg/detect"
)

func controllerConfig() Config {
	cfg := DefaultConfig()
	cfg.Frame = camera.Geometry{Width: 640, Height: 480}
	return cfg
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestController_ProportionalStep(t *testing.T) {
	c := NewController(controllerConfig())
	center := Pose{Pan: 90, Tilt: 90}

	// Target 80px right of center, vertically centered. Pan corrects by
	// kp * error = 1.6 degrees toward the target; tilt is inside the
	// deadband and must not move.
	det := detect.Detection{CenterX: 400, CenterY: 240}
	next := c.Update(center, det, 100*time.Millisecond)

	if !almostEqual(next.Pan, 88.4) {
		t.Errorf("pan = %v, want 88.4", next.Pan)
	}
	if next.Tilt != 90 {
		t.Errorf("tilt = %v, want 90 (within deadband)", next.Tilt)
	}
}

func TestController_DeadbandHoldsBothAxes(t *testing.T) {
	c := NewController(controllerConfig())
	prev := Pose{Pan: 90, Tilt: 90}

	// 5px off center on each axis, below the 10px deadband.
	det := detect.Detection{CenterX: 325, CenterY: 245}
	next := c.Update(prev, det, 100*time.Millisecond)

	if next != prev {
		t.Errorf("pose = %+v, want unchanged %+v", next, prev)
	}
}

func TestController_DeadbandBoundaryIsInclusive(t *testing.T) {
	c := NewController(controllerConfig())
	prev := Pose{Pan: 90, Tilt: 90}

	// Exactly 10px of error does not exceed the deadband.
	det := detect.Detection{CenterX: 330, CenterY: 240}
	if next := c.Update(prev, det, 0); next != prev {
		t.Errorf("pose = %+v, want unchanged at boundary", next)
	}

	// 11px does.
	det = detect.Detection{CenterX: 331, CenterY: 240}
	if next := c.Update(prev, det, 0); next.Pan == prev.Pan {
		t.Error("pan unchanged just outside deadband")
	}
}

func TestController_CorrectionGrowsWithError(t *testing.T) {
	c := NewController(controllerConfig())
	prev := Pose{Pan: 90, Tilt: 90}

	var lastMag float64
	for _, px := range []float64{20, 40, 80, 160} {
		next := c.Update(prev, detect.Detection{CenterX: 320 + px, CenterY: 240}, 0)
		mag := math.Abs(next.Pan - prev.Pan)
		if mag <= lastMag {
			t.Errorf("correction for %vpx = %v, not larger than %v", px, mag, lastMag)
		}
		lastMag = mag
	}
}

func TestController_ClampsToTravelLimits(t *testing.T) {
	cfg := controllerConfig()
	cfg.Gains.KpPan = 10 // force a huge step
	c := NewController(cfg)

	// Target far right drives pan negative; clamp at 0.
	next := c.Update(Pose{Pan: 5, Tilt: 90}, detect.Detection{CenterX: 639, CenterY: 240}, 0)
	if next.Pan != 0 {
		t.Errorf("pan = %v, want clamped to 0", next.Pan)
	}

	// Target far left drives pan positive; clamp at 180.
	next = c.Update(Pose{Pan: 175, Tilt: 90}, detect.Detection{CenterX: 1, CenterY: 240}, 0)
	if next.Pan != 180 {
		t.Errorf("pan = %v, want clamped to 180", next.Pan)
	}
}

func TestController_DirectionSigns(t *testing.T) {
	// Target right of center moves pan down with the default mounting.
	c := NewController(controllerConfig())
	next := c.Update(Pose{Pan: 90, Tilt: 90}, detect.Detection{CenterX: 400, CenterY: 240}, 0)
	if next.Pan >= 90 {
		t.Errorf("pan = %v, want < 90 for target right of center", next.Pan)
	}

	// Flipping the pan direction inverts the correction.
	cfg := controllerConfig()
	cfg.Gains.PanDirection = -1
	c = NewController(cfg)
	next = c.Update(Pose{Pan: 90, Tilt: 90}, detect.Detection{CenterX: 400, CenterY: 240}, 0)
	if next.Pan <= 90 {
		t.Errorf("pan = %v, want > 90 with inverted direction", next.Pan)
	}

	// Target below center moves tilt up with the default mounting.
	c = NewController(controllerConfig())
	next = c.Update(Pose{Pan: 90, Tilt: 90}, detect.Detection{CenterX: 320, CenterY: 300}, 0)
	if next.Tilt <= 90 {
		t.Errorf("tilt = %v, want > 90 for target below center", next.Tilt)
	}
}

func TestController_Smoothing(t *testing.T) {
	cfg := controllerConfig()
	cfg.Gains.SmoothingAlpha = 0.5
	c := NewController(cfg)

	det := detect.Detection{CenterX: 400, CenterY: 240}
	raw := -cfg.Gains.KpPan * 80 // -1.6

	// First step from a zero history: half the raw delta.
	next := c.Update(Pose{Pan: 90, Tilt: 90}, det, 100*time.Millisecond)
	if !almostEqual(next.Pan, 90+0.5*raw) {
		t.Errorf("pan = %v, want %v", next.Pan, 90+0.5*raw)
	}

	// Second identical step: smoothed toward the raw delta.
	prevDelta := 0.5 * raw
	wantDelta := 0.5*raw + 0.5*prevDelta
	next2 := c.Update(next, det, 100*time.Millisecond)
	if !almostEqual(next2.Pan, next.Pan+wantDelta) {
		t.Errorf("pan = %v, want %v", next2.Pan, next.Pan+wantDelta)
	}
}

func TestController_ResetClearsSmoothingHistory(t *testing.T) {
	cfg := controllerConfig()
	cfg.Gains.SmoothingAlpha = 0.5
	c := NewController(cfg)

	det := detect.Detection{CenterX: 400, CenterY: 240}
	first := c.Update(Pose{Pan: 90, Tilt: 90}, det, 100*time.Millisecond)
	c.Reset()
	again := c.Update(Pose{Pan: 90, Tilt: 90}, det, 100*time.Millisecond)

	if !almostEqual(first.Pan, again.Pan) {
		t.Errorf("post-reset pan = %v, want %v as from a fresh controller", again.Pan, first.Pan)
	}
}

func TestEffectiveAlpha(t *testing.T) {
	tests := []struct {
		name  string
		alpha float64
		dt    time.Duration
		want  float64
	}{
		{"nominal step", 0.5, 100 * time.Millisecond, 0.5},
		{"double step weighs more", 0.5, 200 * time.Millisecond, 0.75},
		{"half step weighs less", 0.75, 50 * time.Millisecond, 0.5},
		{"zero dt falls back", 0.5, 0, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := effectiveAlpha(tt.alpha, tt.dt); !almostEqual(got, tt.want) {
				t.Errorf("effectiveAlpha(%v, %v) = %v, want %v", tt.alpha, tt.dt, got, tt.want)
			}
		})
	}
}
