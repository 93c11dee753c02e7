package irtx

import (
	"sort"
	"time"

	"github.com/pkg/errors"
)

// RepeatPolicy selects how a protocol signals a held button.
type RepeatPolicy uint8

const (
	// RepeatOmitHeader resends the full code without the header pair.
	RepeatOmitHeader RepeatPolicy = iota
	// RepeatSendFrame sends Protocol.RepeatFrame instead of the code.
	RepeatSendFrame
)

// Protocol is the timing table of a pulse-distance IR protocol: every bit is
// a fixed mark followed by a space whose length carries the bit value.
// Bits are sent most significant first and the frame ends with a trailing
// mark and a zero length space.
type Protocol struct {
	Name string
	// CarrierKhz is the modulation frequency receivers expect.
	CarrierKhz uint32
	// Bits is the usual code length.
	Bits int

	Header    TimePair
	BitMark   time.Duration
	OneSpace  time.Duration
	ZeroSpace time.Duration

	Repeat      RepeatPolicy
	RepeatFrame []TimePair
	// RepeatGap is the quiet time between consecutive frames of a held button.
	RepeatGap time.Duration
}

// Encode returns the frame for the lowest bits of value. Bits above the
// requested count are dropped.
func (p Protocol) Encode(value uint32, bits int, repeat bool) ([]TimePair, error) {
	if bits < 0 || bits > WordBits {
		return nil, errors.Wrapf(ErrBitCount, "%d bits requested, a code holds 0 to %d", bits, WordBits)
	}
	if repeat && p.Repeat == RepeatSendFrame {
		out := make([]TimePair, len(p.RepeatFrame))
		copy(out, p.RepeatFrame)
		return out, nil
	}

	out := make([]TimePair, 0, bits+2)
	if !repeat {
		out = append(out, p.Header)
	}

	// left-justify so the first bit to send is the top bit
	var data uint32
	if bits > 0 {
		data = value << (WordBits - bits)
	}
	for i := 0; i < bits; i++ {
		if data&(1<<(WordBits-1)) != 0 {
			out = append(out, TimePair{p.BitMark, p.OneSpace})
		} else {
			out = append(out, TimePair{p.BitMark, p.ZeroSpace})
		}
		data <<= 1
	}

	// trailing mark; the zero space switches the carrier off
	out = append(out, TimePair{p.BitMark, 0})
	return out, nil
}

// Decode recovers the data bits of a frame produced by Encode. It is the
// inverse used to check a frame, not a receiver: any space longer than the
// midpoint between ZeroSpace and OneSpace reads as a one.
func (p Protocol) Decode(frame []TimePair) (value uint32, bits int, repeat bool) {
	if len(frame) > 0 && frame[0] == p.Header {
		frame = frame[1:]
	} else {
		repeat = true
	}
	if len(frame) > 0 {
		// drop the trailing mark
		frame = frame[:len(frame)-1]
	}
	threshold := (p.ZeroSpace + p.OneSpace) / 2
	for _, pair := range frame {
		value <<= 1
		if pair.Space() > threshold {
			value |= 1
		}
		bits++
	}
	return value, bits, repeat
}

var protocols = map[string]Protocol{}

// Register makes a protocol available by name. It is meant to be called
// from the init function of a protocol package.
func Register(p Protocol) {
	if p.Name == "" {
		panic("irtx: protocol without a name")
	}
	if _, dup := protocols[p.Name]; dup {
		panic("irtx: protocol registered twice: " + p.Name)
	}
	protocols[p.Name] = p
}

// Lookup returns the protocol registered under name.
func Lookup(name string) (Protocol, error) {
	p, found := protocols[name]
	if !found {
		return Protocol{}, errors.Wrapf(ErrUnknownProtocol, "'%s'", name)
	}
	return p, nil
}

// ProtocolNames lists the registered protocols in sorted order.
func ProtocolNames() []string {
	names := make([]string, 0, len(protocols))
	for name := range protocols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
