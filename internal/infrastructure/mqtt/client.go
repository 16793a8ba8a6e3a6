package mqtt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/eclipse/paho.mqtt.golang/packets"

	"github.com/nerrad567/okmqtt/internal/infrastructure/config"
)

// Client wraps paho.mqtt.golang for a polled control loop.
//
// Received messages are not delivered through callbacks. The paho handler
// only enqueues them into a bounded inbox which the owner drains with Poll,
// so all message processing happens on the owner's goroutine. When the inbox
// is full the message is dropped and counted.
//
// Each Connect opens a fresh clean session. The client never reconnects on
// its own; the caller decides when to retry.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	cfg config.MQTTConfig

	client   pahomqtt.Client
	clientMu sync.RWMutex

	// connected tracks current connection state.
	connected bool
	connMu    sync.RWMutex

	inbox   chan Message
	dropped atomic.Uint64

	// logger for error/panic logging (optional, set via SetLogger).
	logger   Logger
	loggerMu sync.RWMutex
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Message is a received MQTT message.
type Message struct {
	Topic   string
	Payload []byte
}

// New creates a disconnected client. Call Connect to open a session.
func New(cfg config.MQTTConfig) *Client {
	return &Client{
		cfg:   cfg,
		inbox: make(chan Message, inboxSize(cfg)),
	}
}

// Connect opens a new session, replacing any previous one.
//
// The attempt is bounded by the configured connect timeout and by ctx.
// Credential refusals wrap ErrAuthRejected; everything else wraps
// ErrConnectionFailed.
//
// Parameters:
//   - ctx: Cancels the attempt
//   - clientID: MQTT client identifier (see ClientID)
//   - will: Retained last will, or nil for none
func (c *Client) Connect(ctx context.Context, clientID string, will *Will) error {
	c.Disconnect()

	opts := buildClientOptions(c.cfg, clientID, will)
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleConnectionLost(err)
	})

	client := pahomqtt.NewClient(opts)
	token := client.Connect()

	timeout := connectTimeout(c.cfg)
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
	case <-ctx.Done():
		client.Disconnect(0)
		return fmt.Errorf("%w: %w", ErrConnectionFailed, ctx.Err())
	case <-timer.C:
		client.Disconnect(0)
		return fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, timeout)
	}

	if err := token.Error(); err != nil {
		var code byte
		if ct, ok := token.(*pahomqtt.ConnectToken); ok {
			code = ct.ReturnCode()
		}
		return classifyConnectError(code, err)
	}

	c.clientMu.Lock()
	c.client = client
	c.clientMu.Unlock()

	c.connMu.Lock()
	c.connected = true
	c.connMu.Unlock()

	return nil
}

// classifyConnectError maps a failed CONNECT to ErrAuthRejected or
// ErrConnectionFailed.
func classifyConnectError(code byte, err error) error {
	switch {
	case code == packets.ErrRefusedBadUsernameOrPassword,
		code == packets.ErrRefusedNotAuthorised,
		errors.Is(err, packets.ErrorRefusedBadUsernameOrPassword),
		errors.Is(err, packets.ErrorRefusedNotAuthorised):
		return fmt.Errorf("%w: %w", ErrAuthRejected, err)
	default:
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
}

// handleConnectionLost is called by paho when the session drops.
func (c *Client) handleConnectionLost(err error) {
	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()

	if logger := c.getLogger(); logger != nil {
		logger.Warn("MQTT connection lost", "error", err)
	}
}

// Disconnect closes the current session without triggering the will.
// Safe to call when not connected.
func (c *Client) Disconnect() {
	c.clientMu.Lock()
	client := c.client
	c.client = nil
	c.clientMu.Unlock()

	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()

	if client != nil && client.IsConnectionOpen() {
		client.Disconnect(defaultDisconnectQuiesce)
	}
}

// Close disconnects. It exists so the client can be deferred like the
// other infrastructure handles.
func (c *Client) Close() error {
	c.Disconnect()
	return nil
}

// HealthCheck verifies the MQTT connection is alive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (c *Client) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("mqtt health check: %w", ctx.Err())
	default:
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	return nil
}

// IsConnected returns the current connection state.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	connected := c.connected
	c.connMu.RUnlock()
	if !connected {
		return false
	}

	client := c.paho()
	return client != nil && client.IsConnectionOpen()
}

// Poll returns the next received message without blocking.
func (c *Client) Poll() (Message, bool) {
	select {
	case msg := <-c.inbox:
		return msg, true
	default:
		return Message{}, false
	}
}

// Flush discards every queued message and returns how many were dropped.
func (c *Client) Flush() int {
	n := 0
	for {
		select {
		case <-c.inbox:
			n++
		default:
			return n
		}
	}
}

// Dropped returns the number of messages discarded because the inbox was full.
func (c *Client) Dropped() uint64 {
	return c.dropped.Load()
}

// QoS returns the QoS used for publishes and subscriptions.
func (c *Client) QoS() byte {
	return qos(c.cfg)
}

// SetLogger sets a logger for error and panic logging.
// If not set, errors in handlers are silently ignored.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

// getLogger returns the current logger (may be nil).
func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

func (c *Client) paho() pahomqtt.Client {
	c.clientMu.RLock()
	defer c.clientMu.RUnlock()
	return c.client
}

// enqueue copies a received message into the inbox, dropping it when full.
func (c *Client) enqueue(topic string, payload []byte) error {
	msg := Message{
		Topic:   topic,
		Payload: append([]byte(nil), payload...),
	}

	select {
	case c.inbox <- msg:
		return nil
	default:
		c.dropped.Add(1)
		return fmt.Errorf("%w: dropped message on %s", ErrInboxFull, topic)
	}
}

// wrapHandler adapts enqueue to paho with panic recovery and optional logging.
func (c *Client) wrapHandler() pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				if logger := c.getLogger(); logger != nil {
					logger.Error("MQTT handler panic recovered",
						"topic", msg.Topic(),
						"panic", r,
					)
				}
			}
		}()

		if err := c.enqueue(msg.Topic(), msg.Payload()); err != nil {
			if logger := c.getLogger(); logger != nil {
				logger.Warn("MQTT message dropped",
					"topic", msg.Topic(),
					"error", err,
				)
			}
		}
	}
}
