package tracking

import "fmt"

// Waypoint is one pan/tilt position visited during a scan sweep.
type Waypoint struct {
	Pan   float64
	Tilt  float64
	Index int
}

// ScanPlan is the deterministic coverage pattern over the reachable field
// of view. Waypoints are laid out row-major: all pan positions at the
// first tilt angle, then the next tilt row, so the heavier tilt axis moves
// once per row. The sequence is immutable; only the cursor advances.
type ScanPlan struct {
	waypoints []Waypoint
	cursor    int
}

// NewScanPlan generates the waypoint grid from the scan parameters.
func NewScanPlan(cfg Config) (*ScanPlan, error) {
	if cfg.ScanPanSteps < 1 || cfg.ScanTiltSteps < 1 {
		return nil, fmt.Errorf("%w: scan grid %dx%d", ErrConfig, cfg.ScanPanSteps, cfg.ScanTiltSteps)
	}

	pans := linspace(cfg.ScanPanMin, cfg.ScanPanMax, cfg.ScanPanSteps)
	tilts := linspace(cfg.ScanTiltMin, cfg.ScanTiltMax, cfg.ScanTiltSteps)

	waypoints := make([]Waypoint, 0, len(pans)*len(tilts))
	for _, tilt := range tilts {
		for _, pan := range pans {
			waypoints = append(waypoints, Waypoint{
				Pan:   pan,
				Tilt:  tilt,
				Index: len(waypoints),
			})
		}
	}

	return &ScanPlan{waypoints: waypoints}, nil
}

// Next returns the waypoint under the cursor and advances circularly,
// so scanning is infinite and restartable without reinitialization.
func (p *ScanPlan) Next() Waypoint {
	wp := p.waypoints[p.cursor]
	p.cursor = (p.cursor + 1) % len(p.waypoints)
	return wp
}

// Reset rewinds the cursor so the next sweep starts from waypoint 0.
func (p *ScanPlan) Reset() {
	p.cursor = 0
}

// Len returns the number of waypoints in one full sweep.
func (p *ScanPlan) Len() int {
	return len(p.waypoints)
}

// Waypoints returns a copy of the full sequence.
func (p *ScanPlan) Waypoints() []Waypoint {
	out := make([]Waypoint, len(p.waypoints))
	copy(out, p.waypoints)
	return out
}

// linspace returns n evenly spaced values from min to max inclusive.
// n == 1 yields just min.
func linspace(min, max float64, n int) []float64 {
	if n == 1 {
		return []float64{min}
	}
	out := make([]float64, n)
	step := (max - min) / float64(n-1)
	for i := range out {
		out[i] = min + float64(i)*step
	}
	return out
}
