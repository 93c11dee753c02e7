// Package sim is a simulated IR transmitter: a register model of the AVR
// Timer0 used to drive an IR LED on an ATtiny85, and a virtual microsecond
// clock. It implements both irtx.Carrier and irtx.Delayer and records every
// mark and space so frames can be checked without hardware.
package sim

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/sparques/irtx"
)

const (
	// SysClockHz is the CPU clock the timer runs from.
	SysClockHz = 16000000
	// CounterMax is the largest value of the 8 bit Timer0 registers.
	CounterMax = 0xFF

	// IRLED is the port B bit of OC0B (physical pin 6 on an ATtiny85).
	IRLED = 1
)

// Bits of TCCR0A and TCCR0B.
const (
	WGM00  = 1 << 0
	WGM01  = 1 << 1
	COM0B0 = 1 << 4
	COM0B1 = 1 << 5
	COM0A0 = 1 << 6
	COM0A1 = 1 << 7

	CS00  = 1 << 0
	CS01  = 1 << 1
	CS02  = 1 << 2
	WGM02 = 1 << 3
)

// Registers is the subset of I/O registers the transmitter owns.
type Registers struct {
	TCCR0A uint8
	TCCR0B uint8
	OCR0A  uint8
	OCR0B  uint8
	DDRB   uint8
	PORTB  uint8
}

// Segment is a stretch of time with the carrier connected (a mark) or not.
type Segment struct {
	Connected bool
	Duration  time.Duration
}

// Device is a simulated transmitter.
type Device struct {
	log  zerolog.Logger
	regs Registers
	now  time.Duration

	segments []Segment
	writes   int
}

// New creates a device with all registers cleared.
func New(log zerolog.Logger) *Device {
	return &Device{
		log: log.With().Str("component", "sim").Logger(),
	}
}

// ConfigureCarrier implements irtx.Carrier.
// Timer0 runs in phase-correct PWM with OCR0A as top (WGM0 = 101) and no
// prescaling, so the carrier is SysClockHz / 2 / OCR0A.
func (d *Device) ConfigureCarrier(khz uint32) error {
	top, duty, err := irtx.CarrierTiming(SysClockHz, khz, CounterMax)
	if err != nil {
		return err
	}
	d.write(func(r *Registers) { r.DDRB |= 1 << IRLED })
	d.write(func(r *Registers) { r.PORTB &^= 1 << IRLED })
	// OC0A and OC0B disconnected
	d.write(func(r *Registers) { r.TCCR0A = WGM00 })
	d.write(func(r *Registers) { r.TCCR0B = WGM02 | CS00 })
	d.write(func(r *Registers) { r.OCR0A = uint8(top) })
	d.write(func(r *Registers) { r.OCR0B = uint8(duty) })

	d.log.Debug().
		Str("carrier", humanize.SIWithDigits(d.CarrierHz(), 2, "Hz")).
		Uint8("ocr0a", d.regs.OCR0A).
		Uint8("ocr0b", d.regs.OCR0B).
		Msg("Carrier configured")
	return nil
}

// ConnectOutput implements irtx.Carrier by setting COM0B1: OC0B is cleared
// on compare match counting up and set counting down.
func (d *Device) ConnectOutput() {
	d.write(func(r *Registers) { r.TCCR0A |= COM0B1 })
	d.segments = append(d.segments, Segment{Connected: true})
}

// DisconnectOutput implements irtx.Carrier. With COM0B cleared the pin
// falls back to PORTB, which is low.
func (d *Device) DisconnectOutput() {
	d.write(func(r *Registers) { r.TCCR0A &^= COM0B1 | COM0B0 })
	d.segments = append(d.segments, Segment{Connected: false})
}

// DelayMicroseconds implements irtx.Delayer by advancing the virtual clock.
func (d *Device) DelayMicroseconds(us uint32) {
	dur := time.Duration(us) * time.Microsecond
	d.now += dur
	if n := len(d.segments); n > 0 {
		d.segments[n-1].Duration += dur
	}
}

func (d *Device) write(f func(*Registers)) {
	f(&d.regs)
	d.writes++
}

// Registers returns a copy of the register file.
func (d *Device) Registers() Registers {
	return d.regs
}

// Writes counts register writes since creation or the last Reset.
func (d *Device) Writes() int {
	return d.writes
}

// Now is the virtual time elapsed in delays.
func (d *Device) Now() time.Duration {
	return d.now
}

// Connected reports whether the carrier currently reaches the pin.
func (d *Device) Connected() bool {
	return d.regs.TCCR0A&COM0B1 != 0
}

// CarrierHz is the frequency the timer registers produce, 0 when stopped.
func (d *Device) CarrierHz() float64 {
	if d.regs.OCR0A == 0 {
		return 0
	}
	return float64(SysClockHz) / 2 / float64(d.regs.OCR0A)
}

// DutyCycle is the fraction of each carrier period the output is high.
func (d *Device) DutyCycle() float64 {
	if d.regs.OCR0A == 0 {
		return 0
	}
	return float64(d.regs.OCR0B) / float64(d.regs.OCR0A)
}

// Segments returns the recorded connect/disconnect history.
func (d *Device) Segments() []Segment {
	out := make([]Segment, len(d.segments))
	copy(out, d.segments)
	return out
}

// Pairs folds the recorded segments into mark/space pairs. A mark without a
// following space gets a zero space.
func (d *Device) Pairs() []irtx.TimePair {
	var out []irtx.TimePair
	for i := 0; i < len(d.segments); i++ {
		s := d.segments[i]
		if !s.Connected {
			// leading or doubled space; fold into the previous pair
			if n := len(out); n > 0 {
				out[n-1][1] += s.Duration
			}
			continue
		}
		pair := irtx.TimePair{s.Duration, 0}
		if i+1 < len(d.segments) && !d.segments[i+1].Connected {
			pair[1] = d.segments[i+1].Duration
			i++
		}
		out = append(out, pair)
	}
	return out
}

// Reset forgets the recorded history but keeps the register state.
func (d *Device) Reset() {
	d.segments = nil
	d.writes = 0
	d.now = 0
}
