package jvc

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sparques/irtx"
	"github.com/sparques/irtx/hal/sim"
)

func newTx(t *testing.T) (*irtx.TxDevice, *sim.Device) {
	t.Helper()
	dev := sim.New(zerolog.Nop())
	tx, err := irtx.Configure(dev, CarrierKhz, dev)
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}
	dev.Reset()
	return tx, dev
}

func us(n int) time.Duration { return time.Duration(n) * time.Microsecond }

func TestSendOne(t *testing.T) {
	tests := []struct {
		name   string
		repeat bool
	}{
		{"full frame", false},
		{"repeat", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, dev := newTx(t)
			if err := Send(tx, 0x01, 16, tt.repeat); err != nil {
				t.Fatalf("Send: %v", err)
			}

			var want []irtx.TimePair
			if !tt.repeat {
				want = append(want, irtx.TimePair{us(8000), us(4000)})
			}
			for i := 0; i < 15; i++ {
				want = append(want, irtx.TimePair{us(600), us(550)})
			}
			want = append(want, irtx.TimePair{us(600), us(1600)})
			want = append(want, irtx.TimePair{us(600), 0})

			got := dev.Pairs()
			if len(got) != len(want) {
				t.Fatalf("got %d pairs, want %d", len(got), len(want))
			}
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("pair %d: got %v, want %v", i, got[i], want[i])
				}
			}
			if dev.Connected() {
				t.Error("carrier left connected")
			}
		})
	}
}

func TestSendZeroBits(t *testing.T) {
	for _, repeat := range []bool{false, true} {
		tx, dev := newTx(t)
		if err := Send(tx, 0xFFFF, 0, repeat); err != nil {
			t.Fatalf("Send: %v", err)
		}
		want := []irtx.TimePair{{HeaderMark, HeaderSpace}, {BitMark, 0}}
		if repeat {
			want = want[1:]
		}
		got := dev.Pairs()
		if len(got) != len(want) {
			t.Fatalf("repeat=%v: got %v, want %v", repeat, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("repeat=%v pair %d: got %v, want %v", repeat, i, got[i], want[i])
			}
		}
	}
}

func TestSendTooManyBits(t *testing.T) {
	tx, dev := newTx(t)
	if err := Send(tx, 0x01, 40, false); !irtx.IsBitCount(err) {
		t.Fatalf("expected bit count error, got %v", err)
	}
	if dev.Writes() != 0 || len(dev.Segments()) != 0 {
		t.Error("hardware touched by a rejected code")
	}
}

func TestSendDecodes(t *testing.T) {
	codes := []uint32{0x0000, 0xFFFF, 0xC5E8, 0x1234, 0x8000}
	for _, code := range codes {
		tx, dev := newTx(t)
		if err := Send(tx, code, Bits, false); err != nil {
			t.Fatalf("Send: %v", err)
		}
		got, bits, repeat := Protocol.Decode(dev.Pairs())
		if got != code || bits != Bits || repeat {
			t.Errorf("%#04x decoded as %#04x/%d/%v", code, got, bits, repeat)
		}
	}
}

func TestCode(t *testing.T) {
	code := MakeCode(0xC5, 0xE8)
	if code != 0xC5E8 {
		t.Fatalf("MakeCode = %#x", code)
	}
	addr, cmd := SplitCode(code)
	if addr != 0xC5 || cmd != 0xE8 {
		t.Errorf("SplitCode = %#x, %#x", addr, cmd)
	}

	tx, dev := newTx(t)
	if err := tx.SendFrame(Code{Address: 0xC5, Command: 0xE8, Repeat: true}); err != nil {
		t.Fatalf("SendFrame: %v", err)
	}
	got, bits, repeat := Protocol.Decode(dev.Pairs())
	if got != 0xC5E8 || bits != 16 || !repeat {
		t.Errorf("decoded %#x/%d/%v", got, bits, repeat)
	}
}

func TestRegistered(t *testing.T) {
	p, err := irtx.Lookup("jvc")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if p.Header != (irtx.TimePair{HeaderMark, HeaderSpace}) || p.Repeat != irtx.RepeatOmitHeader {
		t.Errorf("registered protocol %+v", p)
	}
}
