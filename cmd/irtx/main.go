package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	terminate "github.com/pulcy/go-terminate"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/sparques/irtx"
	"github.com/sparques/irtx/hal/sim"
	_ "github.com/sparques/irtx/jvc"
	"github.com/sparques/irtx/server"
	"github.com/sparques/irtx/service"
	"github.com/sparques/irtx/service/mqtt"
)

const (
	projectName        = "irtx"
	defaultServerPort  = 7140
	defaultMqttTopicID = "irtx/send"
)

var (
	projectVersion = "dev"
	projectBuild   = "dev"
	maskAny        = errors.WithStack
)

// backendFlags select and configure the carrier hardware.
type backendFlags struct {
	level     string
	backend   string
	pin       int
	activeLow bool
	khz       uint32
}

func (f *backendFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.level, "level", "l", "info", "Set log level")
	fs.StringVarP(&f.backend, "backend", "b", "stub", "Carrier hardware ("+backendNames+")")
	fs.IntVar(&f.pin, "pin", 0, "GPIO pin of the IR LED or oscillator enable line (0 = backend default)")
	fs.BoolVar(&f.activeLow, "active-low", false, "Enable line is active low (gpiogate)")
	fs.Uint32Var(&f.khz, "khz", 0, "Carrier frequency in kHz (0 = protocol default)")
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var err error
	switch os.Args[1] {
	case "send":
		err = runSend(os.Args[2:], logger)
	case "serve":
		err = runServe(os.Args[2:], logger)
	case "version":
		fmt.Printf("%s %s (build %s)\n", projectName, projectVersion, projectBuild)
	default:
		usage()
	}
	if err != nil {
		Exitf("%s failed: %v\n", os.Args[1], err)
	}
}

func usage() {
	Exitf("Usage: %s send|serve|version [flags]\n", os.Args[0])
}

func runSend(args []string, logger zerolog.Logger) error {
	var bf backendFlags
	var protocol, value string
	var bits, count int
	var repeat bool

	fs := pflag.NewFlagSet("send", pflag.ExitOnError)
	bf.register(fs)
	fs.StringVarP(&protocol, "protocol", "p", "jvc", "IR protocol")
	fs.StringVarP(&value, "value", "v", "", "Code to send (decimal, 0x hex or 0b binary)")
	fs.IntVar(&bits, "bits", -1, "Number of bits to send (-1 = protocol default)")
	fs.BoolVar(&repeat, "repeat", false, "Send as a repeat of the previous code")
	fs.IntVarP(&count, "count", "c", 1, "Number of frames; frames after the first are sent as repeats")
	if err := fs.Parse(args); err != nil {
		return maskAny(err)
	}
	logger = withLevel(logger, bf.level)

	code, err := strconv.ParseUint(value, 0, 32)
	if err != nil {
		return errors.Wrapf(err, "invalid value '%s'", value)
	}
	p, err := irtx.Lookup(protocol)
	if err != nil {
		return maskAny(err)
	}

	svc, err := newService(bf, protocol, logger)
	if err != nil {
		return maskAny(err)
	}
	defer svc.Close()

	req := service.SendRequest{
		Protocol: protocol,
		Value:    uint32(code),
		Repeat:   repeat,
	}
	if bits >= 0 {
		req.Bits = &bits
	}
	enc := json.NewEncoder(os.Stdout)
	for i := 0; i < count; i++ {
		if i > 0 {
			time.Sleep(p.RepeatGap)
			req.Repeat = true
		}
		result, err := svc.Send(context.Background(), req)
		if err != nil {
			return maskAny(err)
		}
		if err := enc.Encode(result); err != nil {
			return maskAny(err)
		}
	}
	return nil
}

func runServe(args []string, logger zerolog.Logger) error {
	var bf backendFlags
	var protocol, serverHost, mqttBroker, mqttTopic, mqttUser, mqttPassword, clientID string
	var serverPort int

	fs := pflag.NewFlagSet("serve", pflag.ExitOnError)
	bf.register(fs)
	fs.StringVarP(&protocol, "protocol", "p", "jvc", "Default IR protocol")
	fs.StringVar(&serverHost, "host", "0.0.0.0", "Host address the HTTP server will listen on")
	fs.IntVar(&serverPort, "port", defaultServerPort, "Port the HTTP server will listen on")
	fs.StringVar(&mqttBroker, "mqtt-broker", "", "MQTT broker host:port (empty disables MQTT)")
	fs.StringVar(&mqttTopic, "mqtt-topic", defaultMqttTopicID, "MQTT topic for send requests")
	fs.StringVar(&mqttUser, "mqtt-user", "", "MQTT user name")
	fs.StringVar(&mqttPassword, "mqtt-password", "", "MQTT password")
	fs.StringVar(&clientID, "mqtt-client-id", "", "MQTT client ID (default derived from hostname)")
	if err := fs.Parse(args); err != nil {
		return maskAny(err)
	}
	logger = withLevel(logger, bf.level)

	svc, err := newService(bf, protocol, logger)
	if err != nil {
		return maskAny(err)
	}
	defer svc.Close()

	httpServer, err := server.New(server.Config{
		Host: serverHost,
		Port: serverPort,
	}, logger, svc)
	if err != nil {
		return maskAny(err)
	}

	var bridge *mqtt.Bridge
	if mqttBroker != "" {
		if clientID == "" {
			host, _ := os.Hostname()
			clientID = projectName + "-" + host
		}
		bridge, err = mqtt.New(mqtt.Config{
			BrokerAddress: mqttBroker,
			ClientID:      clientID,
			Topic:         mqttTopic,
			UserName:      mqttUser,
			Password:      mqttPassword,
		}, logger, svc)
		if err != nil {
			return maskAny(err)
		}
	}

	// Prepare to shutdown in a controlled manor
	ctx, cancel := context.WithCancel(context.Background())
	t := terminate.NewTerminator(func(template string, args ...interface{}) {
		logger.Info().Msgf(template, args...)
	}, cancel)
	go t.ListenSignals()

	logger.Info().
		Str("version", projectVersion).
		Str("build", projectBuild).
		Str("carrier", humanize.SI(float64(svc.CarrierKhz())*1000, "Hz")).
		Msgf("Starting %s", projectName)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpServer.Run(ctx) })
	if bridge != nil {
		g.Go(func() error { return bridge.Run(ctx) })
	}
	if err := g.Wait(); err != nil {
		return maskAny(err)
	}
	return nil
}

func newService(bf backendFlags, protocol string, logger zerolog.Logger) (*service.Service, error) {
	carrier, delayer, err := openBackend(bf, logger)
	if err != nil {
		return nil, maskAny(err)
	}
	return startService(bf, protocol, logger, carrier, delayer)
}

// startService configures an opened backend. The backend is closed again
// when the service cannot be created.
func startService(bf backendFlags, protocol string, logger zerolog.Logger, carrier irtx.Carrier, delayer irtx.Delayer) (*service.Service, error) {
	s, err := service.New(service.Config{
		DefaultProtocol: protocol,
		CarrierKhz:      bf.khz,
	}, service.Dependencies{
		Log:     logger,
		Carrier: carrier,
		Delayer: delayer,
	})
	if err != nil {
		if c, ok := carrier.(io.Closer); ok {
			if cerr := c.Close(); cerr != nil {
				logger.Warn().Err(cerr).Msg("Failed to close backend")
			}
		}
		return nil, maskAny(err)
	}
	return s, nil
}

// openStub returns a simulated transmitter; frames complete without waiting.
func openStub(logger zerolog.Logger) (irtx.Carrier, irtx.Delayer) {
	dev := sim.New(logger)
	return dev, dev
}

func withLevel(logger zerolog.Logger, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		Exitf("Invalid log level '%s': %v\n", level, err)
	}
	return logger.Level(lvl)
}

// Print the given error message and exit with code 1
func Exitf(message string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, message, args...)
	os.Exit(1)
}
