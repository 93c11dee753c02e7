//go:build !linux

package main

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/sparques/irtx"
)

const backendNames = "stub"

func openBackend(bf backendFlags, logger zerolog.Logger) (irtx.Carrier, irtx.Delayer, error) {
	if bf.backend != "stub" {
		return nil, nil, errors.Errorf("unknown backend '%s' (%s)", bf.backend, backendNames)
	}
	c, d := openStub(logger)
	return c, d, nil
}
