//go:build linux

// Package rpi drives an IR LED from the hardware PWM of a Raspberry Pi.
//
// The PWM clock is set to the carrier frequency times the cycle length so one
// PWM cycle is one carrier period. A mark sets the duty to a third of the
// cycle, a space sets it to zero.
package rpi

import (
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stianeikeland/go-rpio"

	"github.com/sparques/irtx"
)

const (
	// DefaultPin is GPIO18, PWM0 on the 40 pin header.
	DefaultPin = 18
	// DefaultCycle gives 38kHz within half a percent on a 19.2MHz oscillator.
	DefaultCycle = 6

	oscillatorHz = 19200000
	maxDivisor   = 4095
)

var maskAny = errors.WithStack

// Config selects the PWM pin and its cycle length.
type Config struct {
	// Pin is the BCM number of a PWM capable pin (12, 13, 18 or 19).
	Pin uint8
	// Cycle is the number of PWM clock ticks per carrier period.
	Cycle uint32
}

func (c *Config) setDefaults() {
	if c.Pin == 0 {
		c.Pin = DefaultPin
	}
	if c.Cycle == 0 {
		c.Cycle = DefaultCycle
	}
}

// Carrier implements irtx.Carrier on a Raspberry Pi PWM pin.
type Carrier struct {
	log   zerolog.Logger
	pin   rpio.Pin
	cycle uint32
	duty  uint32
}

// New maps the GPIO registers. Call Close to release them.
func New(config Config, log zerolog.Logger) (*Carrier, error) {
	config.setDefaults()
	switch config.Pin {
	case 12, 13, 18, 19:
	default:
		return nil, errors.Errorf("GPIO%d has no hardware PWM", config.Pin)
	}
	if config.Cycle < irtx.DutyDivisor {
		return nil, errors.Errorf("cycle %d is shorter than the duty divisor", config.Cycle)
	}
	if err := rpio.Open(); err != nil {
		return nil, maskAny(err)
	}
	return &Carrier{
		log:   log.With().Str("component", "rpi").Uint8("pin", config.Pin).Logger(),
		pin:   rpio.Pin(config.Pin),
		cycle: config.Cycle,
		duty:  config.Cycle / irtx.DutyDivisor,
	}, nil
}

// ConfigureCarrier implements irtx.Carrier.
func (c *Carrier) ConfigureCarrier(khz uint32) error {
	if khz == 0 {
		return errors.Wrap(irtx.ErrInvalidFrequency, "frequency must be positive")
	}
	clockHz := uint64(khz) * 1000 * uint64(c.cycle)
	divisor := uint64(oscillatorHz) / clockHz
	if divisor < 2 || divisor > maxDivisor {
		return errors.Wrapf(irtx.ErrInvalidFrequency, "%d kHz needs PWM divisor %d", khz, divisor)
	}

	c.pin.Output()
	c.pin.Low()
	c.pin.Mode(rpio.Pwm)
	c.pin.Freq(int(clockHz))
	c.pin.DutyCycle(0, c.cycle)

	c.log.Debug().
		Str("carrier", humanize.SIWithDigits(float64(oscillatorHz)/float64(divisor)/float64(c.cycle), 2, "Hz")).
		Uint64("divisor", divisor).
		Msg("Carrier configured")
	return nil
}

// ConnectOutput implements irtx.Carrier.
func (c *Carrier) ConnectOutput() {
	c.pin.DutyCycle(c.duty, c.cycle)
}

// DisconnectOutput implements irtx.Carrier.
func (c *Carrier) DisconnectOutput() {
	c.pin.DutyCycle(0, c.cycle)
}

// Close returns the pin to a low output and unmaps the GPIO registers.
func (c *Carrier) Close() error {
	c.pin.DutyCycle(0, c.cycle)
	c.pin.Output()
	c.pin.Low()
	if err := rpio.Close(); err != nil {
		return maskAny(err)
	}
	return nil
}
