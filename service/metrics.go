package service

import (
	"github.com/sparques/irtx/pkg/metrics"
)

const (
	subSystem = "service"

	// protocol label of requests naming an unregistered protocol
	unknownProtocolLabel = "unknown"
)

var (
	// Number of frames sent per protocol
	framesSentTotal = metrics.MustRegisterCounterVec(subSystem,
		"frames_sent_total",
		"Number of frames sent",
		"protocol", "repeat")
	// Number of rejected send requests per protocol, unregistered names
	// are counted as "unknown"
	sendErrorsTotal = metrics.MustRegisterCounterVec(subSystem,
		"send_errors_total",
		"Number of send requests that failed",
		"protocol")
	// Time the carrier spent on the air
	onAirSecondsTotal = metrics.MustRegisterCounter(subSystem,
		"on_air_seconds_total",
		"Total duration of all sent frames in seconds")
	// 1 while a frame is being sent
	busyGauge = metrics.MustRegisterGauge(subSystem,
		"busy",
		"1 while a frame is being sent, 0 otherwise")
	// Time callers wait for the transmitter
	waitSeconds = metrics.MustRegisterHistogram(subSystem,
		"wait_seconds",
		"Time a send request waited for the transmitter",
		[]float64{0.001, 0.01, 0.05, 0.1, 0.5, 1})
)
