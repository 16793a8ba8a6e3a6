package llap

import (
	"context"
	"io"
)

// Transport is the MQTT session used by the bridge.
// This allows mocking in tests; main.go adapts the infrastructure client.
type Transport interface {
	// Connect opens a session with a retained last will. Errors should wrap
	// ErrUnreachable or ErrAuthRejected.
	Connect(ctx context.Context, clientID, willTopic string, willPayload []byte) error

	// Disconnect closes the session without triggering the will.
	Disconnect()

	// IsConnected is the liveness predicate checked once per tick.
	IsConnected() bool

	// Publish sends payload to topic.
	Publish(topic string, payload []byte, retained bool) error

	// Subscribe registers a topic pattern for the current session.
	Subscribe(pattern string) error

	// Poll returns the next received message without blocking.
	Poll() (topic string, payload []byte, ok bool)

	// Flush discards queued messages and returns how many were dropped.
	Flush() int
}

// Port is the serial radio link.
type Port interface {
	io.ReadWriteCloser
}

// Logger is the structured logger used by this package.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// nopLogger is used when no logger is configured.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
