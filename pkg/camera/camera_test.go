package camera

import "testing"

func TestGeometry_Center(t *testing.T) {
	g := Geometry{Width: 640, Height: 480}
	cx, cy := g.Center()
	if cx != 320 || cy != 240 {
		t.Errorf("center = (%v, %v), want (320, 240)", cx, cy)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", DefaultConfig(), false},
		{"zero width", Config{Index: 0, Width: 0, Height: 480}, true},
		{"negative height", Config{Index: 0, Width: 640, Height: -1}, true},
		{"negative index", Config{Index: -2, Width: 640, Height: 480}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
