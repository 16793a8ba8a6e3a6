package mqtt

import (
	"fmt"
)

// Subscribe registers a topic filter for the current session. Matching
// messages are queued for Poll.
//
// Topics can include MQTT wildcards:
//   - + (single-level): "ok/tx/+" matches every device ID
//   - # (multi-level): "ok/tx/#" also matches the bare "ok/tx/" raw frame topic
//
// Subscriptions are not remembered across sessions. After every Connect the
// caller subscribes again, which keeps the set of live subscriptions
// explicit and ordered with respect to Poll.
//
// Parameters:
//   - filter: The topic filter to subscribe to
//
// Returns:
//   - error: nil on success, or wrapped error describing the failure
func (c *Client) Subscribe(filter string) error {
	if err := ValidateFilter(filter); err != nil {
		return err
	}

	client := c.paho()
	if client == nil || !c.IsConnected() {
		return ErrNotConnected
	}

	token := client.Subscribe(filter, c.QoS(), c.wrapHandler())
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrSubscribeFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}

	return nil
}
