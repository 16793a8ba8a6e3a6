package mqtt

import (
	"crypto/tls"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/nerrad567/okmqtt/internal/infrastructure/config"
)

// Connection constants.
const (
	// defaultConnectTimeout is used when the config leaves it unset.
	defaultConnectTimeout = 5 * time.Second

	// defaultPublishTimeout is the maximum time to wait for publish acknowledgment.
	defaultPublishTimeout = 2 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on disconnect.
	defaultDisconnectQuiesce = 250 // milliseconds

	// defaultKeepAlive is used when the config leaves it unset.
	defaultKeepAlive = 15 * time.Second

	// defaultInboxSize is used when the config leaves it unset.
	defaultInboxSize = 32

	// maxQoS is the maximum QoS level the bridge uses.
	maxQoS = 1

	// clientIDSuffixLength is the number of uuid characters appended to a
	// unique client ID. Short enough to stay under the 23 byte limit of
	// MQTT 3.1 brokers with the default "OpenKnotrol" prefix.
	clientIDSuffixLength = 8

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// Will is the retained last will registered with the broker on connect.
type Will struct {
	Topic   string
	Payload []byte
}

// ClientID returns the configured client ID, with a random suffix when
// cfg.Broker.UniqueClientID is set.
func ClientID(cfg config.MQTTConfig) string {
	if !cfg.Broker.UniqueClientID {
		return cfg.Broker.ClientID
	}
	return cfg.Broker.ClientID + "-" + uuid.NewString()[:clientIDSuffixLength]
}

// brokerURL returns tcp://host:port or ssl://host:port.
func brokerURL(cfg config.MQTTConfig) string {
	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port)
}

// buildClientOptions creates paho MQTT options for one session.
//
// This configures:
//   - Broker URL (tcp:// or ssl:// based on TLS setting)
//   - Client ID and credentials (if provided)
//   - Retained last will (if provided)
//   - Clean session with paho's own reconnect logic disabled
//   - TLS configuration (if enabled)
//
// Reconnection is owned by the bridge supervisor, which needs every attempt
// to be visible so it can count failures and resubscribe before resuming.
func buildClientOptions(cfg config.MQTTConfig, clientID string, will *Will) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	opts.AddBroker(brokerURL(cfg))
	opts.SetClientID(clientID)

	// Authentication (if credentials provided)
	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)

	opts.SetConnectTimeout(connectTimeout(cfg))

	keepAlive := cfg.KeepAlive
	if keepAlive <= 0 {
		keepAlive = defaultKeepAlive
	}
	opts.SetKeepAlive(keepAlive)

	if will != nil && will.Topic != "" {
		opts.SetBinaryWill(will.Topic, will.Payload, qos(cfg), true)
	}

	// TLS configuration if enabled
	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{
			MinVersion: tlsMinVersion,
		})
	}

	return opts
}

// qos returns the configured QoS clamped to what the bridge supports.
func qos(cfg config.MQTTConfig) byte {
	if cfg.QoS <= 0 {
		return 0
	}
	if cfg.QoS > maxQoS {
		return maxQoS
	}
	return byte(cfg.QoS)
}

func connectTimeout(cfg config.MQTTConfig) time.Duration {
	if cfg.ConnectTimeout <= 0 {
		return defaultConnectTimeout
	}
	return cfg.ConnectTimeout
}

func inboxSize(cfg config.MQTTConfig) int {
	if cfg.InboxSize <= 0 {
		return defaultInboxSize
	}
	return cfg.InboxSize
}
