// Package service exposes a configured IR transmitter to concurrent callers.
// Requests are sent one at a time; a caller waits until the transmitter is
// free or its context ends. There is no queue.
package service

import (
	"context"
	"io"
	"strconv"
	"time"

	aerr "github.com/ewoutp/go-aggregate-error"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/sparques/irtx"
	"github.com/sparques/irtx/jvc"
)

var maskAny = errors.WithStack

// Config of the service.
type Config struct {
	// DefaultProtocol is used for requests that do not name one.
	DefaultProtocol string
	// CarrierKhz overrides the carrier frequency of the default protocol.
	CarrierKhz uint32
}

func (c *Config) setDefaults() {
	if c.DefaultProtocol == "" {
		c.DefaultProtocol = jvc.Protocol.Name
	}
}

// Dependencies of the service.
type Dependencies struct {
	Log     zerolog.Logger
	Carrier irtx.Carrier
	// Delayer defaults to irtx.BusyWait.
	Delayer irtx.Delayer
}

// SendRequest asks for one code to be sent.
type SendRequest struct {
	Protocol string `json:"protocol,omitempty"`
	Value    uint32 `json:"value"`
	// Bits defaults to the usual code length of the protocol.
	Bits   *int `json:"bits,omitempty"`
	Repeat bool `json:"repeat,omitempty"`
}

// SendResult reports what was sent.
type SendResult struct {
	Protocol string `json:"protocol"`
	Value    uint32 `json:"value"`
	Bits     int    `json:"bits"`
	Repeat   bool   `json:"repeat"`
	// OnAirMicros is the duration of the frame.
	OnAirMicros int64  `json:"on_air_us"`
	Error       string `json:"error,omitempty"`
}

// errorReporter is implemented by carriers whose connect and disconnect
// operations can fail.
type errorReporter interface {
	Err() error
}

// Service owns the transmitter.
type Service struct {
	Config
	log     zerolog.Logger
	carrier irtx.Carrier
	tx      *irtx.TxDevice
	// lock holds a token while a frame is sent
	lock chan struct{}
}

// New configures the carrier for the default protocol.
func New(config Config, deps Dependencies) (*Service, error) {
	config.setDefaults()
	p, err := irtx.Lookup(config.DefaultProtocol)
	if err != nil {
		return nil, maskAny(err)
	}
	khz := config.CarrierKhz
	if khz == 0 {
		khz = p.CarrierKhz
	}
	tx, err := irtx.Configure(deps.Carrier, khz, deps.Delayer)
	if err != nil {
		return nil, maskAny(err)
	}
	return &Service{
		Config:  config,
		log:     deps.Log.With().Str("component", "service").Logger(),
		carrier: deps.Carrier,
		tx:      tx,
		lock:    make(chan struct{}, 1),
	}, nil
}

// CarrierKhz returns the configured carrier frequency.
func (s *Service) CarrierKhz() uint32 {
	return s.tx.CarrierKhz()
}

// Send transmits the requested code. It blocks until the transmitter is free
// and the frame has been sent.
func (s *Service) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	name := req.Protocol
	if name == "" {
		name = s.DefaultProtocol
	}
	result := SendResult{
		Protocol: name,
		Value:    req.Value,
		Repeat:   req.Repeat,
	}
	p, err := irtx.Lookup(name)
	if err != nil {
		return s.failed(result, err)
	}
	result.Bits = p.Bits
	if req.Bits != nil {
		result.Bits = *req.Bits
	}
	if p.CarrierKhz != 0 && p.CarrierKhz != s.tx.CarrierKhz() {
		s.log.Warn().
			Str("protocol", name).
			Uint32("protocol_khz", p.CarrierKhz).
			Uint32("carrier_khz", s.tx.CarrierKhz()).
			Msg("Protocol expects a different carrier frequency")
	}

	start := time.Now()
	select {
	case s.lock <- struct{}{}:
	case <-ctx.Done():
		return s.failed(result, ctx.Err())
	}
	// both cases may be ready; a finished context never transmits
	if err := ctx.Err(); err != nil {
		<-s.lock
		return s.failed(result, err)
	}
	waitSeconds.Observe(time.Since(start).Seconds())
	busyGauge.Set(1)
	onAir, err := s.tx.Send(p, req.Value, result.Bits, req.Repeat)
	if err == nil {
		if r, ok := s.carrier.(errorReporter); ok {
			err = r.Err()
		}
	}
	busyGauge.Set(0)
	<-s.lock

	if err != nil {
		return s.failed(result, err)
	}
	result.OnAirMicros = onAir.Microseconds()
	framesSentTotal.WithLabelValues(name, strconv.FormatBool(req.Repeat)).Inc()
	onAirSecondsTotal.Add(onAir.Seconds())
	s.log.Debug().
		Str("protocol", name).
		Uint32("value", req.Value).
		Int("bits", result.Bits).
		Bool("repeat", req.Repeat).
		Dur("on_air", onAir).
		Msg("Frame sent")
	return result, nil
}

func (s *Service) failed(result SendResult, err error) (SendResult, error) {
	label := result.Protocol
	if irtx.IsUnknownProtocol(err) {
		// caller supplied names must not create series
		label = unknownProtocolLabel
	}
	sendErrorsTotal.WithLabelValues(label).Inc()
	result.Error = err.Error()
	s.log.Warn().Err(err).Str("protocol", result.Protocol).Msg("Send failed")
	return result, maskAny(err)
}

// Close leaves the carrier disconnected and releases the hardware.
func (s *Service) Close() error {
	var ae aerr.AggregateError
	s.lock <- struct{}{}
	s.carrier.DisconnectOutput()
	if r, ok := s.carrier.(errorReporter); ok {
		ae.Add(r.Err())
	}
	if c, ok := s.carrier.(io.Closer); ok {
		ae.Add(c.Close())
	}
	<-s.lock
	return ae.AsError()
}
