package irtx

import "time"

// Delayer blocks the caller for a number of microseconds.
type Delayer interface {
	DelayMicroseconds(us uint32)
}

// DelayerFunc adapts a function to the Delayer interface.
type DelayerFunc func(us uint32)

func (f DelayerFunc) DelayMicroseconds(us uint32) { f(us) }

// BusyWait spins on the monotonic clock. It does not yield, so marks and
// spaces are not stretched by the scheduler.
type BusyWait struct{}

func (BusyWait) DelayMicroseconds(us uint32) {
	if us == 0 {
		return
	}
	deadline := time.Now().Add(time.Duration(us) * time.Microsecond)
	for time.Now().Before(deadline) {
	}
}
