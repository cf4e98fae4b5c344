package tracking

import (
	"errors"
	"math"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults pass", func(c *Config) {}, false},
		{"nan gain", func(c *Config) { c.Gains.KpPan = math.NaN() }, true},
		{"infinite gain", func(c *Config) { c.Gains.KpTilt = math.Inf(1) }, true},
		{"negative gain", func(c *Config) { c.Gains.KpPan = -0.02 }, true},
		{"zero gain ok", func(c *Config) { c.Gains.KpPan = 0 }, false},
		{"negative deadband", func(c *Config) { c.Gains.DeadbandPx = -1 }, true},
		{"alpha above one", func(c *Config) { c.Gains.SmoothingAlpha = 1.5 }, true},
		{"alpha one ok", func(c *Config) { c.Gains.SmoothingAlpha = 1 }, false},
		{"direction zero", func(c *Config) { c.Gains.PanDirection = 0 }, true},
		{"direction minus one ok", func(c *Config) { c.Gains.TiltDirection = -1 }, false},
		{"zero frame", func(c *Config) { c.Frame.Width = 0 }, true},
		{"zero scan steps", func(c *Config) { c.ScanPanSteps = 0 }, true},
		{"inverted scan range", func(c *Config) { c.ScanTiltMin, c.ScanTiltMax = 150, 30 }, true},
		{"zero tracking duration", func(c *Config) { c.TrackingDuration = 0 }, true},
		{"zero lost timeout", func(c *Config) { c.LostTimeout = 0 }, true},
		{"zero capture count", func(c *Config) { c.CaptureCount = 0 }, true},
		{"zero max hardware errors", func(c *Config) { c.MaxHardwareErrors = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr && !errors.Is(err, ErrConfig) {
				t.Errorf("err = %v, want ErrConfig", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestSessionTiming(t *testing.T) {
	start := timeAt(0)
	s := NewSession(start)

	if got := s.Elapsed(timeAt(3)); got.Seconds() != 3 {
		t.Errorf("elapsed = %v, want 3s", got)
	}

	s.Seen(timeAt(2))
	if got := s.SinceSeen(timeAt(5)); got.Seconds() != 3 {
		t.Errorf("since seen = %v, want 3s", got)
	}
	if got := s.Elapsed(timeAt(5)); got.Seconds() != 5 {
		t.Errorf("elapsed = %v, want 5s after Seen", got)
	}
}
