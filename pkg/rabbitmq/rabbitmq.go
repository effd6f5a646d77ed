// Package rabbitmq connects to the broker over MQTT (RabbitMQ runs the MQTT
// plugin) and provides a JSON publisher and a topic consumer on top of paho.
package rabbitmq

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/logging"
)

type Config struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	ClientID string `koanf:"client_id"`
	// PersistentSession keeps subscriptions and queued QoS 1 messages on the
	// broker across reconnects. Needs a stable ClientID.
	PersistentSession bool `koanf:"persistent_session"`
	MaxRetries        int  `koanf:"max_retries"`
}

func (c Config) Enabled() bool { return c.Host != "" }

func (c Config) addr() string {
	port := c.Port
	if port == 0 {
		port = 1883
	}
	return fmt.Sprintf("tcp://%s:%d", c.Host, port)
}

// Connect dials the broker with exponential backoff. The connection is
// closed when ctx is done.
func Connect(ctx context.Context, cfg Config) (mqtt.Client, error) {
	log := logging.With("mqtt")
	addr := cfg.addr()

	opts := mqtt.NewClientOptions()
	opts.AddBroker(addr)
	opts.SetUsername(cfg.User)
	opts.SetPassword(cfg.Password)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(!cfg.PersistentSession)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Str("broker", addr).Msg("connection lost")
	})
	opts.SetReconnectingHandler(func(_ mqtt.Client, _ *mqtt.ClientOptions) {
		log.Info().Str("broker", addr).Msg("reconnecting")
	})

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 5
	}
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 10 * time.Second

	var client mqtt.Client
	err := backoff.Retry(func() error {
		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			log.Warn().Err(token.Error()).Str("broker", addr).Msg("connect failed")
			return token.Error()
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(maxRetries-1)), ctx))
	if err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", addr, err)
	}
	log.Info().Str("broker", addr).Str("client_id", cfg.ClientID).Msg("connected")

	go func() {
		<-ctx.Done()
		Close(client)
	}()
	return client, nil
}

func Close(client mqtt.Client) {
	if client != nil && client.IsConnected() {
		client.Disconnect(250)
		logging.Info().Msg("mqtt connection closed")
	}
}
