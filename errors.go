package irtx

import "github.com/pkg/errors"

var (
	// ErrInvalidFrequency is returned when a carrier frequency cannot be
	// represented by the timer (zero, or a period outside the counter range).
	ErrInvalidFrequency = errors.New("invalid carrier frequency")
	IsInvalidFrequency  = isErrorFunc(ErrInvalidFrequency)
	// ErrBitCount is returned when more bits are requested than a code word holds.
	ErrBitCount = errors.New("invalid bit count")
	IsBitCount  = isErrorFunc(ErrBitCount)
	// ErrInvalidDuration is returned for negative or oversized pulse durations.
	ErrInvalidDuration = errors.New("invalid pulse duration")
	IsInvalidDuration  = isErrorFunc(ErrInvalidDuration)
	// ErrUnknownProtocol is returned when a protocol name is not registered.
	ErrUnknownProtocol = errors.New("unknown protocol")
	IsUnknownProtocol  = isErrorFunc(ErrUnknownProtocol)

	maskAny = errors.WithStack
)

func isErrorFunc(typeOfError error) func(err error) bool {
	return func(err error) bool {
		return err == typeOfError || errors.Cause(err) == typeOfError
	}
}
