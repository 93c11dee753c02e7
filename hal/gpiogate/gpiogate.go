//go:build linux

// Package gpiogate switches an external carrier oscillator with a GPIO line.
//
// Some IR transmitter modules carry their own fixed 38kHz oscillator and only
// need an enable input. The carrier frequency cannot be changed, so
// ConfigureCarrier only accepts frequencies the oscillator can serve.
// Line writes go through the kernel, so pulse edges jitter by tens of
// microseconds; JVC tolerates this, tighter protocols may not.
package gpiogate

import (
	"io"
	"sync"

	"github.com/ecc1/gpio"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/sparques/irtx"
)

const (
	// DefaultPin is GPIO17, header pin 11.
	DefaultPin = 17
	// DefaultOscillatorKhz is the frequency of common IR transmitter modules.
	DefaultOscillatorKhz = 38
	// DefaultToleranceKhz is how far a requested carrier may be from the
	// oscillator; demodulating receivers accept roughly +/-2kHz.
	DefaultToleranceKhz = 2
)

var maskAny = errors.WithStack

// Config describes the enable line and the oscillator behind it.
type Config struct {
	// Pin is the GPIO number of the enable line.
	Pin int
	// ActiveLow inverts the enable line.
	ActiveLow     bool
	OscillatorKhz uint32
	ToleranceKhz  uint32
}

// Line is the output the gate drives. gpio.OutputPin satisfies it.
// Lines that implement io.Closer are closed by Gate.Close.
type Line interface {
	Write(bool) error
}

// Gate implements irtx.Carrier with an enable line.
type Gate struct {
	Config
	log  zerolog.Logger
	line Line

	mutex   sync.Mutex
	lastErr error
}

// New opens the enable line and drives it inactive.
func New(config Config, log zerolog.Logger) (*Gate, error) {
	if config.Pin == 0 {
		config.Pin = DefaultPin
	}
	line, err := gpio.Output(config.Pin, config.ActiveLow, false)
	if err != nil {
		return nil, maskAny(err)
	}
	return NewWithLine(config, line, log)
}

// NewWithLine builds a gate on an already opened line.
func NewWithLine(config Config, line Line, log zerolog.Logger) (*Gate, error) {
	if config.OscillatorKhz == 0 {
		config.OscillatorKhz = DefaultOscillatorKhz
	}
	if config.ToleranceKhz == 0 {
		config.ToleranceKhz = DefaultToleranceKhz
	}
	g := &Gate{
		Config: config,
		log:    log.With().Str("component", "gpiogate").Int("pin", config.Pin).Logger(),
		line:   line,
	}
	if err := line.Write(false); err != nil {
		return nil, maskAny(err)
	}
	return g, nil
}

// ConfigureCarrier implements irtx.Carrier. It checks khz against the
// oscillator and disables the output.
func (g *Gate) ConfigureCarrier(khz uint32) error {
	lo := g.OscillatorKhz - g.ToleranceKhz
	if g.ToleranceKhz > g.OscillatorKhz {
		lo = 1
	}
	hi := g.OscillatorKhz + g.ToleranceKhz
	if khz == 0 || khz < lo || khz > hi {
		return errors.Wrapf(irtx.ErrInvalidFrequency, "%d kHz, oscillator runs at %d+/-%d kHz", khz, g.OscillatorKhz, g.ToleranceKhz)
	}
	g.set(false)
	g.log.Debug().Uint32("khz", khz).Msg("Carrier configured")
	return nil
}

// ConnectOutput implements irtx.Carrier.
func (g *Gate) ConnectOutput() { g.set(true) }

// DisconnectOutput implements irtx.Carrier.
func (g *Gate) DisconnectOutput() { g.set(false) }

// Err returns the first line write error since the last call and clears it.
// ConnectOutput and DisconnectOutput cannot report errors themselves.
func (g *Gate) Err() error {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	err := g.lastErr
	g.lastErr = nil
	return err
}

// Close drives the enable line inactive and releases it.
func (g *Gate) Close() error {
	if err := g.line.Write(false); err != nil {
		return maskAny(err)
	}
	if c, ok := g.line.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return maskAny(err)
		}
	}
	g.log.Debug().Msg("Enable line closed")
	return nil
}

func (g *Gate) set(on bool) {
	if err := g.line.Write(on); err != nil {
		g.log.Error().Err(err).Bool("on", on).Msg("Failed to write enable line")
		g.mutex.Lock()
		if g.lastErr == nil {
			g.lastErr = maskAny(err)
		}
		g.mutex.Unlock()
	}
}
