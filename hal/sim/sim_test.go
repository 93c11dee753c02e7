package sim

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sparques/irtx"
)

func TestConfigureCarrier(t *testing.T) {
	d := New(zerolog.Nop())
	if err := d.ConfigureCarrier(38); err != nil {
		t.Fatalf("ConfigureCarrier: %v", err)
	}
	want := Registers{
		TCCR0A: WGM00,
		TCCR0B: WGM02 | CS00,
		OCR0A:  210,
		OCR0B:  70,
		DDRB:   1 << IRLED,
	}
	if got := d.Registers(); got != want {
		t.Errorf("registers %+v, want %+v", got, want)
	}
	if err := d.ConfigureCarrier(0); !irtx.IsInvalidFrequency(err) {
		t.Errorf("expected invalid frequency, got %v", err)
	}
}

func TestPairs(t *testing.T) {
	d := New(zerolog.Nop())
	// a space before any mark has nothing to attach to
	d.DisconnectOutput()
	d.DelayMicroseconds(100)
	d.ConnectOutput()
	d.DelayMicroseconds(600)
	d.DisconnectOutput()
	d.DelayMicroseconds(500)
	d.DisconnectOutput()
	d.DelayMicroseconds(50)
	d.ConnectOutput()
	d.DelayMicroseconds(600)

	want := []irtx.TimePair{
		{600 * time.Microsecond, 550 * time.Microsecond},
		{600 * time.Microsecond, 0},
	}
	got := d.Pairs()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pair %d: got %v, want %v", i, got[i], want[i])
		}
	}
	if !d.Connected() {
		t.Error("expected carrier connected")
	}
	if d.Now() != 1850*time.Microsecond {
		t.Errorf("Now = %s", d.Now())
	}

	d.Reset()
	if len(d.Segments()) != 0 || d.Now() != 0 || d.Writes() != 0 {
		t.Error("Reset kept history")
	}
	if !d.Connected() {
		t.Error("Reset changed registers")
	}
}
