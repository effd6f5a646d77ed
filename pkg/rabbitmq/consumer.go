package rabbitmq

import (
	"context"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/logging"
)

type Handler func(topic string, msg mqtt.Message) error

// Consumer subscribes a single handler to several topic filters, each with
// its own QoS.
type Consumer struct {
	client  mqtt.Client
	filters map[string]byte
	handler Handler
}

func NewConsumer(client mqtt.Client, filters map[string]byte, handler Handler) *Consumer {
	return &Consumer{client: client, filters: filters, handler: handler}
}

// Run subscribes and blocks until ctx is done, then unsubscribes. It
// returns the first subscribe error.
func (c *Consumer) Run(ctx context.Context) error {
	log := logging.With("mqtt-consumer")
	topics := make([]string, 0, len(c.filters))
	for filter, qos := range c.filters {
		token := c.client.Subscribe(filter, qos, func(_ mqtt.Client, msg mqtt.Message) {
			if err := c.handler(msg.Topic(), msg); err != nil {
				log.Error().Err(err).Str("topic", msg.Topic()).Msg("handler failed")
			}
		})
		token.Wait()
		if err := token.Error(); err != nil {
			if len(topics) > 0 {
				c.client.Unsubscribe(topics...).Wait()
			}
			return fmt.Errorf("subscribe %s: %w", filter, err)
		}
		topics = append(topics, filter)
		log.Info().Str("topic", filter).Uint8("qos", qos).Msg("subscribed")
	}

	<-ctx.Done()
	if len(topics) > 0 {
		c.client.Unsubscribe(topics...).Wait()
	}
	return nil
}
