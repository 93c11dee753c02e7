// Package jvc implements the JVC consumer IR protocol.
//
// A JVC frame is an 8ms/4ms header followed by 16 pulse-distance bits, most
// significant first, and a trailing mark. A held button resends the same
// code without the header.
package jvc

import (
	"time"

	"github.com/sparques/irtx"
)

const (
	// CarrierKhz is the JVC modulation frequency.
	CarrierKhz = 38
	// Bits is the length of a JVC code: an 8 bit address and an 8 bit command.
	Bits = 16

	HeaderMark  = 8000 * time.Microsecond
	HeaderSpace = 4000 * time.Microsecond
	BitMark     = 600 * time.Microsecond
	OneSpace    = 1600 * time.Microsecond
	ZeroSpace   = 550 * time.Microsecond

	// RepeatGap separates frames while a button is held.
	RepeatGap = 22 * time.Millisecond
)

// Protocol is the JVC timing table.
var Protocol = irtx.Protocol{
	Name:       "jvc",
	CarrierKhz: CarrierKhz,
	Bits:       Bits,
	Header:     irtx.TimePair{HeaderMark, HeaderSpace},
	BitMark:    BitMark,
	OneSpace:   OneSpace,
	ZeroSpace:  ZeroSpace,
	Repeat:     irtx.RepeatOmitHeader,
	RepeatGap:  RepeatGap,
}

func init() {
	irtx.Register(Protocol)
}

// Send transmits the lowest bits of value. With repeat set the header is
// left out, which is how JVC signals a held button.
func Send(tx *irtx.TxDevice, value uint32, bits int, repeat bool) error {
	_, err := tx.Send(Protocol, value, bits, repeat)
	return err
}

// MakeCode packs an address and command into a 16 bit code.
func MakeCode(address, command uint8) uint32 {
	return uint32(address)<<8 | uint32(command)
}

// SplitCode is the inverse of MakeCode.
func SplitCode(code uint32) (address, command uint8) {
	return uint8(code >> 8), uint8(code)
}

// Code is a 16 bit JVC code that can be handed to irtx.TxDevice.SendFrame.
type Code struct {
	Address uint8
	Command uint8
	Repeat  bool
}

// MarshalFrame implements irtx.FrameMarshaller.
func (c Code) MarshalFrame() []irtx.TimePair {
	// 16 bits always fit, Encode cannot fail here
	frame, _ := Protocol.Encode(MakeCode(c.Address, c.Command), Bits, c.Repeat)
	return frame
}
