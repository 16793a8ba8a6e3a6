package mqtt

import (
	"fmt"
)

// Maximum payload size for MQTT messages (64KB).
// LLAP frames are 12 bytes; anything near this limit is a bug upstream.
const maxPayloadSize = 1 << 16

// Publish sends a message to the specified MQTT topic.
//
// Parameters:
//   - topic: The topic to publish to (e.g., "ok/rx/A1"); wildcards are rejected
//   - payload: The message payload (max 64KB)
//   - qos: Quality of Service level (0 or 1)
//   - retained: Whether the broker should retain the message for new subscribers
//
// Retained Messages:
//   - Use for the status topic so late subscribers see liveness
//   - Don't use for radio telemetry or commands
//
// Returns:
//   - error: nil on success, or wrapped error describing the failure
//
// Example:
//
//	err := client.Publish("ok/rx/A1", []byte("aA1ON       "), client.QoS(), false)
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	// Validate inputs
	if err := ValidateTopic(topic); err != nil {
		return err
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	// Check connection state
	client := c.paho()
	if client == nil || !c.IsConnected() {
		return ErrNotConnected
	}

	// Publish with timeout
	token := client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// PublishRetained publishes a retained message with the configured QoS.
func (c *Client) PublishRetained(topic string, payload []byte) error {
	return c.Publish(topic, payload, c.QoS(), true)
}
