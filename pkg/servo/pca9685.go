package servo

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/pca9685"
	"periph.io/x/host/v3"
)

// I2CAddr is the default PCA9685 address.
const I2CAddr uint16 = 0x40

// Standard hobby servo pulse timing at 50Hz: 500-2500us maps to 0-180 degrees.
const (
	pwmFreq    = 50 * physic.Hertz
	pulseMinUs = 500.0
	pulseMaxUs = 2500.0
	periodUs   = 20000.0
)

// PCA9685Output drives servos through the 16-channel PWM chip over I2C.
type PCA9685Output struct {
	bus i2c.BusCloser
	dev *pca9685.Dev
}

// NewPCA9685 opens the named I2C bus (e.g. "1" or "I2C1", empty for the
// first available) and configures the chip for 50Hz servo PWM.
func NewPCA9685(busName string, addr uint16) (*PCA9685Output, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%w: init periph host: %v", ErrHardware, err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("%w: open i2c bus %q: %v", ErrHardware, busName, err)
	}

	dev, err := pca9685.NewI2C(bus, addr)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("%w: pca9685 at 0x%02x: %v", ErrHardware, addr, err)
	}

	if err := dev.SetPwmFreq(pwmFreq); err != nil {
		bus.Close()
		return nil, fmt.Errorf("%w: set pwm frequency: %v", ErrHardware, err)
	}

	return &PCA9685Output{bus: bus, dev: dev}, nil
}

// SetAngle converts the angle to a pulse width and writes the duty cycle.
func (o *PCA9685Output) SetAngle(channel int, degrees float64) error {
	pulse := pulseMinUs + degrees/(MaxAngle-MinAngle)*(pulseMaxUs-pulseMinUs)
	duty := gpio.Duty(pulse / periodUs * float64(gpio.DutyMax))
	if err := o.dev.SetPwm(channel, 0, duty); err != nil {
		return fmt.Errorf("pca9685 channel %d: %w", channel, err)
	}
	return nil
}

// Close releases the I2C bus.
func (o *PCA9685Output) Close() error {
	return o.bus.Close()
}
