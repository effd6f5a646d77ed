package rabbitmq

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

var ErrPublishTimeout = errors.New("mqtt publish timed out")

// JSONPublisher is what the services depend on.
type JSONPublisher interface {
	PublishJSON(topic string, qos byte, v any) error
}

type Publisher struct {
	client  mqtt.Client
	timeout time.Duration
}

func NewPublisher(client mqtt.Client, timeout time.Duration) *Publisher {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Publisher{client: client, timeout: timeout}
}

// PublishJSON marshals v and publishes it. A nil Publisher, or one without
// a client, drops the message and returns nil.
func (p *Publisher) PublishJSON(topic string, qos byte, v any) error {
	if p == nil || p.client == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", topic, err)
	}
	token := p.client.Publish(topic, qos, false, b)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("%s: %w", topic, ErrPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

func (p *Publisher) Connected() bool {
	return p != nil && p.client != nil && p.client.IsConnected()
}
