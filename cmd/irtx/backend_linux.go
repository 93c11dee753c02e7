//go:build linux

package main

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/sparques/irtx"
	"github.com/sparques/irtx/hal/gpiogate"
	"github.com/sparques/irtx/hal/rpi"
)

const backendNames = "stub|rpi|gpiogate"

func openBackend(bf backendFlags, logger zerolog.Logger) (irtx.Carrier, irtx.Delayer, error) {
	switch bf.backend {
	case "stub":
		c, d := openStub(logger)
		return c, d, nil
	case "rpi":
		c, err := rpi.New(rpi.Config{Pin: uint8(bf.pin)}, logger)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to initialize Raspberry Pi PWM")
		}
		return c, irtx.BusyWait{}, nil
	case "gpiogate":
		c, err := gpiogate.New(gpiogate.Config{Pin: bf.pin, ActiveLow: bf.activeLow}, logger)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to open enable line")
		}
		return c, irtx.BusyWait{}, nil
	default:
		return nil, nil, errors.Errorf("unknown backend '%s' (%s)", bf.backend, backendNames)
	}
}
