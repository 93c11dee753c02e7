// Package irtx transmits consumer infrared remote control codes.
//
// A TxDevice is obtained by configuring a Carrier: the carrier free-runs at
// the modulation frequency and the TxDevice connects it to the IR LED pin for
// marks and disconnects it for spaces. Protocols turn a code into a frame of
// mark/space TimePairs.
//
//	tx, err := irtx.Configure(carrier, irtx.Freq38Khz/1000, irtx.BusyWait{})
//	if err != nil {
//		return err
//	}
//	err = jvc.Send(tx, 0xC5E8, 16, false)
package irtx

import "time"

const (
	// Freq38Khz is the most commonly used frequency for IR remotes
	Freq38Khz = 38000

	// WordBits is the width of the register codes are shifted through.
	WordBits = 32
)

// TimePair encodes a mark (carrier on) duration followed by a space (carrier off) duration.
// The sequencer counts in whole microseconds; a pair with a finer duration is
// rejected by SendPairs.
type TimePair [2]time.Duration

// Mark returns the carrier-on part of the pair.
func (p TimePair) Mark() time.Duration { return p[0] }

// Space returns the carrier-off part of the pair.
func (p TimePair) Space() time.Duration { return p[1] }

// Duration is the total on-air time of the pair.
func (p TimePair) Duration() time.Duration { return p[0] + p[1] }

func (p TimePair) valid() bool {
	return p[0] >= 0 && p[1] >= 0 && p[0] <= maxPulse && p[1] <= maxPulse &&
		p[0]%time.Microsecond == 0 && p[1]%time.Microsecond == 0
}

// maxPulse is the longest mark or space the sequencer accepts.
const maxPulse = time.Duration(1<<32-1) * time.Microsecond

// FrameMarshaller defines an interface for marshalling data to slice of TimePairs
type FrameMarshaller interface {
	MarshalFrame() []TimePair
}

// FrameDuration sums the on-air time of a frame.
func FrameDuration(frame []TimePair) time.Duration {
	var total time.Duration
	for _, p := range frame {
		total += p.Duration()
	}
	return total
}

func micros(d time.Duration) uint32 {
	return uint32(d / time.Microsecond)
}
