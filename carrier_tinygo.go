//go:build tinygo

package irtx

import (
	"machine"

	"github.com/pkg/errors"
	"github.com/sparques/pwm"
)

// PWMCarrier drives the carrier from the PWM group that owns pin.
// The PWM keeps running between marks; a space sets the compare value to
// zero so the pin stays low.
type PWMCarrier struct {
	pin    machine.Pin
	pgroup pwm.Group
	ch     uint8
	duty   uint32
}

func NewPWMCarrier(pin machine.Pin) *PWMCarrier {
	return &PWMCarrier{pin: pin}
}

// ConfigureCarrier implements Carrier.
func (c *PWMCarrier) ConfigureCarrier(khz uint32) error {
	if khz == 0 {
		return errors.Wrap(ErrInvalidFrequency, "frequency must be positive")
	}
	// idle low before the timer takes the pin
	c.pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	c.pin.Low()

	c.pin.Configure(machine.PinConfig{Mode: machine.PinPWM})
	c.pgroup = pwm.Get(c.pin)
	if err := c.pgroup.Configure(machine.PWMConfig{Period: uint64(1e6) / uint64(khz)}); err != nil {
		return errors.Wrapf(ErrInvalidFrequency, "%d kHz: %v", khz, err)
	}
	ch, err := c.pgroup.Channel(c.pin)
	if err != nil {
		return maskAny(err)
	}
	top := c.pgroup.Top()
	if top == 0 {
		return errors.Wrapf(ErrInvalidFrequency, "%d kHz leaves no counter range", khz)
	}
	c.ch = ch
	c.duty = top / DutyDivisor
	c.pgroup.Set(c.ch, 0)
	return nil
}

// ConnectOutput implements Carrier.
func (c *PWMCarrier) ConnectOutput() {
	c.pgroup.Set(c.ch, c.duty)
}

// DisconnectOutput implements Carrier.
func (c *PWMCarrier) DisconnectOutput() {
	c.pgroup.Set(c.ch, 0)
}

// NewTxDevice configures a 38kHz carrier on pin and returns a device that
// busy-waits for its marks and spaces.
func NewTxDevice(pin machine.Pin) (*TxDevice, error) {
	return Configure(NewPWMCarrier(pin), Freq38Khz/1000, BusyWait{})
}
