// Package servo drives the pan/tilt mount through a PCA9685 PWM controller.
//
// The hardware is open loop: there is no position feedback, so the last
// successfully commanded angle is the only notion of "where the servo is".
// The Actuator records it per channel and treats it as ground truth.
package servo

import (
	"errors"
	"fmt"
	"sync"
)

// Mechanical range of the hobby servos on both axes, in degrees.
const (
	MinAngle    = 0.0
	MaxAngle    = 180.0
	CenterAngle = 90.0
)

// ErrHardware is returned when the underlying I2C/PWM transaction fails.
var ErrHardware = errors.New("servo: hardware communication failed")

// Channel identifies one axis of the mount.
type Channel int

const (
	// Pan is the horizontal axis.
	Pan Channel = iota
	// Tilt is the vertical axis.
	Tilt
)

func (c Channel) String() string {
	switch c {
	case Pan:
		return "pan"
	case Tilt:
		return "tilt"
	}
	return fmt.Sprintf("channel(%d)", int(c))
}

// Output is the hardware primitive: set one PWM channel to an angle.
// Implementations receive angles already clamped to [MinAngle, MaxAngle].
type Output interface {
	SetAngle(channel int, degrees float64) error
	Close() error
}

// Config maps the logical axes onto PCA9685 channel numbers.
type Config struct {
	PanChannel  int
	TiltChannel int
}

// DefaultConfig matches the reference wiring: pan on channel 0, tilt on 1.
func DefaultConfig() Config {
	return Config{PanChannel: 0, TiltChannel: 1}
}

// Actuator is the clamped angle interface used by the control loop.
// It is safe for concurrent use, though the orchestrator owns it
// exclusively during a cycle.
type Actuator struct {
	out      Output
	channels [2]int

	mu     sync.Mutex
	angles [2]float64
}

// NewActuator wraps a hardware output. Commanded angles start at center;
// call Center to physically move there.
func NewActuator(out Output, cfg Config) *Actuator {
	return &Actuator{
		out:      out,
		channels: [2]int{cfg.PanChannel, cfg.TiltChannel},
		angles:   [2]float64{CenterAngle, CenterAngle},
	}
}

// SetAngle clamps degrees to the mechanical range and forwards it to the
// hardware. Clamping is silent: overshoot requests are routine output of the
// proportional controller, not a fault. The recorded angle is updated only
// when the hardware write succeeds.
func (a *Actuator) SetAngle(ch Channel, degrees float64) error {
	clamped := Clamp(degrees, MinAngle, MaxAngle)

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.out.SetAngle(a.channels[ch], clamped); err != nil {
		return fmt.Errorf("%w: set %s to %.1f: %v", ErrHardware, ch, clamped, err)
	}
	a.angles[ch] = clamped
	return nil
}

// Angle returns the last successfully commanded angle for the channel.
func (a *Actuator) Angle(ch Channel) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.angles[ch]
}

// Center moves both axes to the neutral position.
func (a *Actuator) Center() error {
	if err := a.SetAngle(Pan, CenterAngle); err != nil {
		return err
	}
	return a.SetAngle(Tilt, CenterAngle)
}

// Close releases the hardware output.
func (a *Actuator) Close() error {
	return a.out.Close()
}

// Clamp limits a value to a range.
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
