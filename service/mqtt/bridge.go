// Package mqtt sends IR codes requested over MQTT.
//
// Requests are JSON encoded service.SendRequest messages published to the
// configured topic. The outcome of each request is published as a JSON
// service.SendResult to the same topic with a "/result" suffix.
package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	mqttapi "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/sparques/irtx/service"
)

const (
	resultSuffix   = "/result"
	publishTimeout = time.Millisecond * 200
	// sendTimeout bounds how long a request waits for the transmitter.
	sendTimeout = time.Second * 2
)

var maskAny = errors.WithStack

// Config of the bridge.
type Config struct {
	// BrokerAddress is host:port of the broker.
	BrokerAddress string
	ClientID      string
	Topic         string
	UserName      string
	Password      string
}

// Sender sends a single request.
type Sender interface {
	Send(ctx context.Context, req service.SendRequest) (service.SendResult, error)
}

// Bridge subscribes to the request topic and forwards requests to a Sender.
type Bridge struct {
	Config
	log    zerolog.Logger
	sender Sender
}

// New creates a bridge. It connects once Run is called.
func New(config Config, log zerolog.Logger, sender Sender) (*Bridge, error) {
	if config.BrokerAddress == "" {
		return nil, errors.New("broker address is required")
	}
	if config.Topic == "" {
		return nil, errors.New("topic is required")
	}
	config.Topic = strings.TrimSuffix(config.Topic, "/")
	return &Bridge{
		Config: config,
		log:    log.With().Str("component", "mqtt").Str("topic", config.Topic).Logger(),
		sender: sender,
	}, nil
}

// Run connects to the broker and serves requests until ctx is canceled.
func (b *Bridge) Run(ctx context.Context) error {
	opts := mqttapi.NewClientOptions().
		AddBroker("tcp://" + b.BrokerAddress).
		SetClientID(b.ClientID).
		SetUsername(b.UserName).
		SetPassword(b.Password)
	opts.SetKeepAlive(2 * time.Second)
	opts.SetPingTimeout(1 * time.Second)
	// requests are sent one at a time anyway
	opts.SetOrderMatters(true)
	opts.SetAutoReconnect(true)

	client := mqttapi.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return errors.Wrapf(token.Error(), "failed to connect to mqtt broker %s", b.BrokerAddress)
	}
	defer client.Disconnect(250)

	handler := func(c mqttapi.Client, m mqttapi.Message) {
		result := b.handle(ctx, m.Payload())
		b.publish(c, result)
	}
	if token := client.Subscribe(b.Topic, 1, handler); token.Wait() && token.Error() != nil {
		return errors.Wrapf(token.Error(), "failed to subscribe to '%s'", b.Topic)
	}
	b.log.Info().Str("broker", b.BrokerAddress).Msg("Listening for send requests")

	<-ctx.Done()
	if token := client.Unsubscribe(b.Topic); token.WaitTimeout(publishTimeout) && token.Error() != nil {
		b.log.Warn().Err(token.Error()).Msg("Failed to unsubscribe")
	}
	return nil
}

// handle decodes and sends one request.
func (b *Bridge) handle(ctx context.Context, payload []byte) service.SendResult {
	var req service.SendRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		b.log.Warn().Err(err).Msg("Invalid send request")
		return service.SendResult{Error: "invalid request: " + err.Error()}
	}
	sctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	result, err := b.sender.Send(sctx, req)
	if err != nil {
		b.log.Debug().Err(err).Msg("Send request failed")
	}
	return result
}

func (b *Bridge) publish(c mqttapi.Client, result service.SendResult) {
	encoded, err := json.Marshal(result)
	if err != nil {
		b.log.Error().Err(err).Msg("Failed to encode result")
		return
	}
	token := c.Publish(b.Topic+resultSuffix, 0, false, encoded)
	if !token.WaitTimeout(publishTimeout) {
		b.log.Warn().Msg("Timeout publishing result")
	} else if err := token.Error(); err != nil {
		b.log.Warn().Err(maskAny(err)).Msg("Failed to publish result")
	}
}
