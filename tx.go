package irtx

import (
	"time"

	"github.com/pkg/errors"
)

// TxDevice sends marks and spaces on a configured carrier.
// It is not safe for concurrent use: the carrier and pin are a single resource.
type TxDevice struct {
	carrier Carrier
	delay   Delayer
	khz     uint32
}

// Configure sets up the carrier at khz and returns the device that sends on
// it. The carrier output is left disconnected.
func Configure(c Carrier, khz uint32, d Delayer) (*TxDevice, error) {
	if d == nil {
		d = BusyWait{}
	}
	if err := c.ConfigureCarrier(khz); err != nil {
		return nil, maskAny(err)
	}
	return &TxDevice{
		carrier: c,
		delay:   d,
		khz:     khz,
	}, nil
}

// CarrierKhz returns the frequency the carrier was configured with.
func (tx *TxDevice) CarrierKhz() uint32 {
	return tx.khz
}

// Mark connects the carrier to the pin for us microseconds.
func (tx *TxDevice) Mark(us uint32) {
	tx.carrier.ConnectOutput()
	tx.delay.DelayMicroseconds(us)
}

// Space disconnects the carrier for us microseconds. A zero space only
// turns the carrier off.
func (tx *TxDevice) Space(us uint32) {
	tx.carrier.DisconnectOutput()
	tx.delay.DelayMicroseconds(us)
}

// SendPair sends one mark followed by one space.
func (tx *TxDevice) SendPair(pair TimePair) error {
	return tx.SendPairs(pair)
}

// SendPairs checks every pair and then sends them back to back.
// Durations must be non-negative whole microseconds that fit a uint32;
// nothing is sent if any pair is invalid.
func (tx *TxDevice) SendPairs(pairs ...TimePair) error {
	for i, p := range pairs {
		if !p.valid() {
			return errors.Wrapf(ErrInvalidDuration, "pair %d: mark %s, space %s", i, p.Mark(), p.Space())
		}
	}
	for _, p := range pairs {
		tx.Mark(micros(p.Mark()))
		tx.Space(micros(p.Space()))
	}
	return nil
}

// SendFrame marshals and sends a frame.
func (tx *TxDevice) SendFrame(fm FrameMarshaller) error {
	return tx.SendPairs(fm.MarshalFrame()...)
}

// SendFrames sends frames in order, stopping at the first invalid one.
func (tx *TxDevice) SendFrames(fms ...FrameMarshaller) error {
	for _, fm := range fms {
		if err := tx.SendFrame(fm); err != nil {
			return err
		}
	}
	return nil
}

// Send encodes value with protocol p and transmits it. The call blocks for
// the whole frame and returns the time spent on air.
func (tx *TxDevice) Send(p Protocol, value uint32, bits int, repeat bool) (time.Duration, error) {
	frame, err := p.Encode(value, bits, repeat)
	if err != nil {
		return 0, maskAny(err)
	}
	if err := tx.SendPairs(frame...); err != nil {
		return 0, maskAny(err)
	}
	return FrameDuration(frame), nil
}
