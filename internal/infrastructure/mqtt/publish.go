package mqtt

import (
	"fmt"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Maximum payload size for MQTT messages (1MB).
const maxPayloadSize = 1 << 20

// Publish sends a message and waits for the broker to acknowledge it.
//
// Parameters:
//   - topic: The topic to publish to (e.g., "dev/request/desk-lamp")
//   - payload: The message payload (max 1MB)
//   - qos: Quality of Service level (0, 1, or 2)
//   - retained: Whether the broker should retain the message for new subscribers
//
// Do not call Publish from inside a MessageHandler: delivery is ordered, so
// waiting for an acknowledgement there stalls the client. Use PublishAsync.
//
// Returns:
//   - error: nil on success, or wrapped error describing the failure
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	token, err := c.publish(topic, payload, qos, retained)
	if err != nil {
		return err
	}

	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// PublishAsync hands a message to the client without waiting for the
// broker. Validation and connection errors are returned immediately; later
// delivery failures are logged.
//
// Messages passed to PublishAsync from one goroutine leave in call order.
func (c *Client) PublishAsync(topic string, payload []byte, qos byte, retained bool) error {
	token, err := c.publish(topic, payload, qos, retained)
	if err != nil {
		return err
	}

	go func() {
		if !token.WaitTimeout(defaultPublishTimeout) {
			if l := c.getLogger(); l != nil {
				l.Warn("MQTT publish not acknowledged", "topic", topic, "timeout", defaultPublishTimeout.String())
			}
			return
		}
		if err := token.Error(); err != nil {
			if l := c.getLogger(); l != nil {
				l.Warn("MQTT publish failed", "topic", topic, "error", err)
			}
		}
	}()

	return nil
}

// publish validates inputs and hands the message to paho.
func (c *Client) publish(topic string, payload []byte, qos byte, retained bool) (pahomqtt.Token, error) {
	if topic == "" {
		return nil, ErrInvalidTopic
	}
	if qos > maxQoS {
		return nil, ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return nil, fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		return nil, ErrNotConnected
	}

	return c.client.Publish(topic, qos, retained, payload), nil
}

// Publisher binds a client to a fixed QoS for fire-and-forget publishing.
// It satisfies director.Publisher.
type Publisher struct {
	client *Client
	qos    byte
}

// NewPublisher returns a Publisher that sends non-retained messages at qos.
func (c *Client) NewPublisher(qos byte) *Publisher {
	return &Publisher{client: c, qos: qos}
}

// Publish calls PublishAsync with the bound QoS.
func (p *Publisher) Publish(topic string, payload []byte) error {
	return p.client.PublishAsync(topic, payload, p.qos, false)
}
