package mqtt

import "errors"

// Domain-specific errors for MQTT operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConnected is returned when attempting operations on a disconnected client.
	ErrNotConnected = errors.New("mqtt: client not connected")

	// ErrConnectionFailed is returned when a connection attempt fails for
	// network reasons or times out.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrAuthRejected is returned when the broker refuses the credentials
	// (CONNACK bad user name or password, or not authorised).
	ErrAuthRejected = errors.New("mqtt: connection refused, not authorised")

	// ErrPublishFailed is returned when a publish operation fails.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrSubscribeFailed is returned when a subscribe operation fails.
	ErrSubscribeFailed = errors.New("mqtt: subscribe failed")

	// ErrInvalidQoS is returned when an invalid QoS level is specified.
	// The bridge supports QoS 0 and 1.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level (must be 0 or 1)")

	// ErrInvalidTopic is returned when a topic or filter is empty or malformed.
	ErrInvalidTopic = errors.New("mqtt: invalid topic")

	// ErrInboxFull is recorded when a received message is dropped because
	// the control loop has not drained the inbox.
	ErrInboxFull = errors.New("mqtt: inbox full")
)
