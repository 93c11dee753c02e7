package irtx_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/sparques/irtx"
)

var testProtocol = irtx.Protocol{
	Name:       "test",
	CarrierKhz: 38,
	Bits:       16,
	Header:     irtx.TimePair{8000 * time.Microsecond, 4000 * time.Microsecond},
	BitMark:    600 * time.Microsecond,
	OneSpace:   1600 * time.Microsecond,
	ZeroSpace:  550 * time.Microsecond,
}

func mask(bits int) uint32 {
	if bits >= 32 {
		return 0xFFFFFFFF
	}
	return 1<<uint(bits) - 1
}

func TestEncodeRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for bits := 0; bits <= 32; bits++ {
		for i := 0; i < 20; i++ {
			value := rnd.Uint32()
			for _, repeat := range []bool{false, true} {
				frame, err := testProtocol.Encode(value, bits, repeat)
				if err != nil {
					t.Fatalf("Encode(%#x, %d, %v): %v", value, bits, repeat, err)
				}
				got, gotBits, gotRepeat := testProtocol.Decode(frame)
				if got != value&mask(bits) || gotBits != bits || gotRepeat != repeat {
					t.Errorf("Encode(%#x, %d, %v) decodes to %#x/%d/%v", value, bits, repeat, got, gotBits, gotRepeat)
				}
			}
		}
	}
}

func TestEncodeShape(t *testing.T) {
	for _, repeat := range []bool{false, true} {
		for _, bits := range []int{0, 1, 8, 16, 31, 32} {
			frame, err := testProtocol.Encode(0xA5A5A5A5, bits, repeat)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			want := bits + 2
			if repeat {
				want = bits + 1
			}
			if len(frame) != want {
				t.Fatalf("bits=%d repeat=%v: got %d pairs, want %d", bits, repeat, len(frame), want)
			}

			headers := 0
			for _, p := range frame {
				if p == testProtocol.Header {
					headers++
				}
			}
			if repeat && headers != 0 {
				t.Errorf("bits=%d: repeat frame has %d headers", bits, headers)
			}
			if !repeat && (headers != 1 || frame[0] != testProtocol.Header) {
				t.Errorf("bits=%d: want exactly one leading header, got %d", bits, headers)
			}

			data := frame[:len(frame)-1]
			if !repeat {
				data = data[1:]
			}
			for i, p := range data {
				if p.Mark() != testProtocol.BitMark {
					t.Errorf("bit %d: mark %s", i, p.Mark())
				}
				if p.Space() != testProtocol.OneSpace && p.Space() != testProtocol.ZeroSpace {
					t.Errorf("bit %d: space %s", i, p.Space())
				}
			}

			trailer := frame[len(frame)-1]
			if trailer != (irtx.TimePair{testProtocol.BitMark, 0}) {
				t.Errorf("bits=%d: trailer %v", bits, trailer)
			}
		}
	}
}

func TestEncodeMSBFirst(t *testing.T) {
	frame, err := testProtocol.Encode(0x8001, 16, true)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if frame[0].Space() != testProtocol.OneSpace {
		t.Errorf("first bit space %s, want one", frame[0].Space())
	}
	for i := 1; i < 15; i++ {
		if frame[i].Space() != testProtocol.ZeroSpace {
			t.Errorf("bit %d space %s, want zero", i, frame[i].Space())
		}
	}
	if frame[15].Space() != testProtocol.OneSpace {
		t.Errorf("last bit space %s, want one", frame[15].Space())
	}
}

func TestEncodeBitCount(t *testing.T) {
	for _, bits := range []int{-1, 33, 64} {
		if _, err := testProtocol.Encode(1, bits, false); !irtx.IsBitCount(err) {
			t.Errorf("bits=%d: expected bit count error, got %v", bits, err)
		}
	}
}

func TestEncodeRepeatFrame(t *testing.T) {
	p := testProtocol
	p.Repeat = irtx.RepeatSendFrame
	p.RepeatFrame = []irtx.TimePair{
		{9000 * time.Microsecond, 2250 * time.Microsecond},
		{560 * time.Microsecond, 0},
	}
	frame, err := p.Encode(0xFFFF, 16, true)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(frame) != 2 || frame[0] != p.RepeatFrame[0] || frame[1] != p.RepeatFrame[1] {
		t.Errorf("repeat frame %v", frame)
	}
	frame[0][0] = 0
	if p.RepeatFrame[0][0] == 0 {
		t.Error("Encode returned the protocol's own repeat frame")
	}

	frame, err = p.Encode(0xFFFF, 16, false)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(frame) != 18 {
		t.Errorf("full frame has %d pairs", len(frame))
	}
}

func TestRegistry(t *testing.T) {
	p := testProtocol
	p.Name = "registry-test"
	if _, err := irtx.Lookup(p.Name); err != nil {
		irtx.Register(p)
	}

	got, err := irtx.Lookup("registry-test")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got.Name != p.Name || got.Header != p.Header {
		t.Errorf("Lookup returned %+v", got)
	}
	if _, err := irtx.Lookup("no-such-protocol"); !irtx.IsUnknownProtocol(err) {
		t.Errorf("expected unknown protocol error, got %v", err)
	}

	found := false
	for _, name := range irtx.ProtocolNames() {
		if name == "registry-test" {
			found = true
		}
	}
	if !found {
		t.Errorf("ProtocolNames() = %v", irtx.ProtocolNames())
	}
}

func TestFrameDuration(t *testing.T) {
	frame := []irtx.TimePair{
		{8 * time.Millisecond, 4 * time.Millisecond},
		{600 * time.Microsecond, 0},
	}
	if got := irtx.FrameDuration(frame); got != 12600*time.Microsecond {
		t.Errorf("FrameDuration = %s", got)
	}
}
