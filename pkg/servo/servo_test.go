package servo

import (
	"errors"
	"testing"
)

func TestActuator_ClampsToRange(t *testing.T) {
	tests := []struct {
		name      string
		requested float64
		expected  float64
	}{
		{"below minimum", -45, 0},
		{"far below minimum", -1000, 0},
		{"at minimum", 0, 0},
		{"in range", 88.4, 88.4},
		{"at maximum", 180, 180},
		{"above maximum", 181, 180},
		{"far above maximum", 720, 180},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := NewMockOutput()
			a := NewActuator(out, DefaultConfig())

			if err := a.SetAngle(Pan, tt.requested); err != nil {
				t.Fatalf("SetAngle: %v", err)
			}

			last, ok := out.Last()
			if !ok {
				t.Fatal("no command reached hardware")
			}
			if last.Degrees != tt.expected {
				t.Errorf("hardware got %v, want %v", last.Degrees, tt.expected)
			}
			if a.Angle(Pan) != tt.expected {
				t.Errorf("recorded angle %v, want %v", a.Angle(Pan), tt.expected)
			}
		})
	}
}

func TestActuator_ChannelMapping(t *testing.T) {
	out := NewMockOutput()
	a := NewActuator(out, Config{PanChannel: 4, TiltChannel: 7})

	if err := a.SetAngle(Pan, 10); err != nil {
		t.Fatalf("pan: %v", err)
	}
	if err := a.SetAngle(Tilt, 20); err != nil {
		t.Fatalf("tilt: %v", err)
	}

	calls := out.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 hardware commands, got %d", len(calls))
	}
	if calls[0].Channel != 4 || calls[1].Channel != 7 {
		t.Errorf("channels %d,%d, want 4,7", calls[0].Channel, calls[1].Channel)
	}
}

func TestActuator_HardwareErrorKeepsLastAngle(t *testing.T) {
	out := NewMockOutput()
	a := NewActuator(out, DefaultConfig())

	if err := a.SetAngle(Pan, 120); err != nil {
		t.Fatalf("SetAngle: %v", err)
	}

	out.Err = errors.New("i2c write failed")
	err := a.SetAngle(Pan, 45)
	if err == nil {
		t.Fatal("expected error from failing output")
	}
	if !errors.Is(err, ErrHardware) {
		t.Errorf("error %v does not wrap ErrHardware", err)
	}

	// The failed command must not become the recorded position.
	if a.Angle(Pan) != 120 {
		t.Errorf("recorded angle %v, want 120 after failed write", a.Angle(Pan))
	}
}

func TestActuator_Center(t *testing.T) {
	out := NewMockOutput()
	a := NewActuator(out, DefaultConfig())

	if err := a.SetAngle(Pan, 10); err != nil {
		t.Fatal(err)
	}
	if err := a.Center(); err != nil {
		t.Fatalf("Center: %v", err)
	}

	if a.Angle(Pan) != CenterAngle || a.Angle(Tilt) != CenterAngle {
		t.Errorf("got pan=%v tilt=%v, want both %v", a.Angle(Pan), a.Angle(Tilt), CenterAngle)
	}
}

func TestChannel_String(t *testing.T) {
	if Pan.String() != "pan" || Tilt.String() != "tilt" {
		t.Errorf("unexpected channel names: %q %q", Pan.String(), Tilt.String())
	}
}
