package main

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/sparques/irtx"
	"github.com/sparques/irtx/hal/sim"
)

type closingCarrier struct {
	*sim.Device
	closed bool
}

func (c *closingCarrier) Close() error {
	c.closed = true
	return nil
}

func TestStartService(t *testing.T) {
	tests := []struct {
		name     string
		khz      uint32
		protocol string
		closed   bool
	}{
		{"default", 0, "jvc", false},
		{"bad frequency", 9000, "jvc", true},
		{"unknown protocol", 0, "nope", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &closingCarrier{Device: sim.New(zerolog.Nop())}
			s, err := startService(backendFlags{khz: tt.khz}, tt.protocol, zerolog.Nop(), c, c.Device)
			if tt.closed {
				if err == nil || s != nil {
					t.Fatalf("expected an error, got %v", s)
				}
			} else if err != nil {
				t.Fatalf("startService: %v", err)
			}
			if c.closed != tt.closed {
				t.Errorf("closed = %v, want %v", c.closed, tt.closed)
			}
		})
	}
}

func TestStartServiceNoCloser(t *testing.T) {
	_, err := startService(backendFlags{khz: 9000}, "jvc", zerolog.Nop(), sim.New(zerolog.Nop()), irtx.DelayerFunc(func(uint32) {}))
	if !irtx.IsInvalidFrequency(err) {
		t.Errorf("expected invalid frequency, got %v", err)
	}
}
