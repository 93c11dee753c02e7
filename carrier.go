package irtx

import "github.com/pkg/errors"

// DutyDivisor sets the carrier duty cycle to 1/DutyDivisor of the period.
// A third keeps average LED current down while receivers still lock on.
const DutyDivisor = 3

// Carrier is the hardware needed to modulate an IR LED: a timer that
// free-runs the carrier wave and a switch between that wave and the pin.
type Carrier interface {
	// ConfigureCarrier brings the timer into a known state running at the given
	// frequency (in kHz) with the output disconnected and the pin driven low.
	ConfigureCarrier(khz uint32) error
	// ConnectOutput routes the carrier to the pin.
	ConnectOutput()
	// DisconnectOutput detaches the carrier; the pin idles low.
	DisconnectOutput()
}

// CarrierTiming computes the period (top) and compare (duty) register values
// of a phase-correct PWM timer clocked at sysClockHz without prescaling.
// In phase-correct mode the counter runs up and down, so the output frequency
// is sysClockHz / 2 / top. counterMax is the largest value the period
// register holds.
func CarrierTiming(sysClockHz, khz, counterMax uint32) (top, duty uint32, err error) {
	if khz == 0 {
		return 0, 0, errors.Wrap(ErrInvalidFrequency, "frequency must be positive")
	}
	top = sysClockHz / 2 / khz / 1000
	if top == 0 {
		return 0, 0, errors.Wrapf(ErrInvalidFrequency, "%d kHz is too high for a %d Hz clock", khz, sysClockHz)
	}
	if top > counterMax {
		return 0, 0, errors.Wrapf(ErrInvalidFrequency, "%d kHz needs period %d, counter holds %d", khz, top, counterMax)
	}
	return top, top / DutyDivisor, nil
}
