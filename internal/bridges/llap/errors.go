package llap

import "errors"

// Domain errors for the LLAP bridge package.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrMalformed is returned when a frame is too short, too long, lacks a
	// terminator or contains characters outside the LLAP alphabet.
	ErrMalformed = errors.New("llap: malformed frame")

	// ErrFieldTooLong is returned when a device ID is not exactly
	// DevIDLength characters or a payload exceeds DataLength characters.
	ErrFieldTooLong = errors.New("llap: field too long")

	// ErrUnknownTopic is returned when an inbound MQTT topic does not sit
	// under the configured command mask.
	ErrUnknownTopic = errors.New("llap: unknown topic")

	// ErrUnreachable is returned when the broker cannot be reached.
	ErrUnreachable = errors.New("llap: broker unreachable")

	// ErrAuthRejected is returned when the broker refuses our credentials.
	ErrAuthRejected = errors.New("llap: broker rejected credentials")

	// ErrNotConnected is returned when a publish is attempted without a session.
	ErrNotConnected = errors.New("llap: not connected")
)
