package mqtt

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/eclipse/paho.mqtt.golang/packets"

	"github.com/nerrad567/okmqtt/internal/infrastructure/config"
)

// testConfig returns a valid MQTT configuration for testing.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "okmqtt-test",
		},
		QoS:            1,
		KeepAlive:      15 * time.Second,
		ConnectTimeout: 2 * time.Second,
		InboxSize:      4,
	}
}

// =============================================================================
// Option Tests
// =============================================================================

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = config.MQTTAuthConfig{Username: "bridge", Password: "secret"}

	opts := buildClientOptions(cfg, "OpenKnotrol", &Will{Topic: "ok/status", Payload: []byte("Restart: OKMQTT")})

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "tcp://127.0.0.1:1883" {
		t.Errorf("Servers = %v", opts.Servers)
	}
	if opts.ClientID != "OpenKnotrol" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "bridge" || opts.Password != "secret" {
		t.Errorf("credentials not set")
	}
	if opts.AutoReconnect || opts.ConnectRetry {
		t.Error("paho reconnect must be disabled")
	}
	if !opts.CleanSession {
		t.Error("CleanSession = false")
	}
	if !opts.WillEnabled || opts.WillTopic != "ok/status" || string(opts.WillPayload) != "Restart: OKMQTT" {
		t.Errorf("will = %v %q %q", opts.WillEnabled, opts.WillTopic, opts.WillPayload)
	}
	if !opts.WillRetained || opts.WillQos != 1 {
		t.Errorf("will retained=%v qos=%d", opts.WillRetained, opts.WillQos)
	}
	if opts.ConnectTimeout != 2*time.Second {
		t.Errorf("ConnectTimeout = %v", opts.ConnectTimeout)
	}
	if opts.KeepAlive != 15 {
		t.Errorf("KeepAlive = %d, want 15", opts.KeepAlive)
	}
}

func TestBuildClientOptions_TLSAndNoWill(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883

	opts := buildClientOptions(cfg, "id", nil)

	if opts.Servers[0].String() != "ssl://127.0.0.1:8883" {
		t.Errorf("broker = %s", opts.Servers[0])
	}
	if opts.TLSConfig == nil || opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Error("TLS config not set")
	}
	if opts.WillEnabled {
		t.Error("will enabled without a will")
	}
	if opts.Username != "" {
		t.Error("username set without credentials")
	}
}

func TestBuildClientOptions_Defaults(t *testing.T) {
	opts := buildClientOptions(config.MQTTConfig{Broker: config.MQTTBrokerConfig{Host: "h", Port: 1}}, "id", nil)
	if opts.ConnectTimeout != defaultConnectTimeout {
		t.Errorf("ConnectTimeout = %v", opts.ConnectTimeout)
	}
	if opts.KeepAlive != int64(defaultKeepAlive/time.Second) {
		t.Errorf("KeepAlive = %d", opts.KeepAlive)
	}
}

func TestClientID(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.ClientID = "OpenKnotrol"

	if got := ClientID(cfg); got != "OpenKnotrol" {
		t.Errorf("ClientID() = %q", got)
	}

	cfg.Broker.UniqueClientID = true
	a, b := ClientID(cfg), ClientID(cfg)
	if !strings.HasPrefix(a, "OpenKnotrol-") || len(a) != len("OpenKnotrol-")+clientIDSuffixLength {
		t.Errorf("unique ClientID() = %q", a)
	}
	if len(a) > 23 {
		t.Errorf("ClientID() %q longer than 23 bytes", a)
	}
	if a == b {
		t.Error("unique client IDs collided")
	}
}

func TestQoSClamp(t *testing.T) {
	tests := []struct {
		in   int
		want byte
	}{
		{-1, 0}, {0, 0}, {1, 1}, {2, 1},
	}
	for _, tt := range tests {
		cfg := testConfig()
		cfg.QoS = tt.in
		if got := New(cfg).QoS(); got != tt.want {
			t.Errorf("QoS(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestClassifyConnectError(t *testing.T) {
	tests := []struct {
		name string
		code byte
		err  error
		want error
	}{
		{
			name: "bad credentials code",
			code: packets.ErrRefusedBadUsernameOrPassword,
			err:  packets.ErrorRefusedBadUsernameOrPassword,
			want: ErrAuthRejected,
		},
		{
			name: "not authorised error only",
			err:  packets.ErrorRefusedNotAuthorised,
			want: ErrAuthRejected,
		},
		{
			name: "server unavailable",
			code: packets.ErrRefusedServerUnavailable,
			err:  packets.ErrorRefusedServerUnavailable,
			want: ErrConnectionFailed,
		},
		{
			name: "network error",
			err:  errors.New("dial tcp 10.0.0.2:1883: connect: connection refused"),
			want: ErrConnectionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyConnectError(tt.code, tt.err)
			if !errors.Is(got, tt.want) {
				t.Errorf("classifyConnectError() = %v, want %v", got, tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("original error not wrapped: %v", got)
			}
		})
	}
}

// =============================================================================
// Inbox Tests
// =============================================================================

func TestInbox_PollAndFlush(t *testing.T) {
	c := New(testConfig())

	if _, ok := c.Poll(); ok {
		t.Fatal("Poll() on empty inbox returned a message")
	}

	payload := []byte("OFF")
	if err := c.enqueue("ok/tx/A1", payload); err != nil {
		t.Fatalf("enqueue() error: %v", err)
	}
	payload[0] = 'X' // inbox holds a copy

	msg, ok := c.Poll()
	if !ok || msg.Topic != "ok/tx/A1" || string(msg.Payload) != "OFF" {
		t.Errorf("Poll() = %+v, %v", msg, ok)
	}

	for i := 0; i < 3; i++ {
		c.enqueue("ok/tx/A1", []byte("ON")) //nolint:errcheck // inbox has room
	}
	if n := c.Flush(); n != 3 {
		t.Errorf("Flush() = %d, want 3", n)
	}
	if _, ok := c.Poll(); ok {
		t.Error("Poll() after Flush returned a message")
	}
}

func TestInbox_FullDropsAndCounts(t *testing.T) {
	c := New(testConfig()) // inbox of 4

	for i := 0; i < 4; i++ {
		if err := c.enqueue("ok/tx/A1", []byte("ON")); err != nil {
			t.Fatalf("enqueue %d error: %v", i, err)
		}
	}
	err := c.enqueue("ok/tx/A1", []byte("ON"))
	if !errors.Is(err, ErrInboxFull) {
		t.Fatalf("enqueue() on full inbox error = %v, want ErrInboxFull", err)
	}
	if c.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", c.Dropped())
	}
}

func TestInbox_DefaultSize(t *testing.T) {
	cfg := testConfig()
	cfg.InboxSize = 0
	if got := cap(New(cfg).inbox); got != defaultInboxSize {
		t.Errorf("inbox cap = %d, want %d", got, defaultInboxSize)
	}
}

// =============================================================================
// Disconnected Client Tests
// =============================================================================

func TestDisconnectedClient(t *testing.T) {
	c := New(testConfig())

	if c.IsConnected() {
		t.Error("IsConnected() = true before Connect")
	}
	if err := c.Publish("ok/rx/A1", []byte("x"), 0, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
	if err := c.Subscribe("ok/tx/#"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe() error = %v, want ErrNotConnected", err)
	}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}

	// Disconnect and Close are safe without a session.
	c.Disconnect()
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestPublishValidation(t *testing.T) {
	c := New(testConfig())

	tests := []struct {
		name    string
		topic   string
		qos     byte
		payload []byte
		want    error
	}{
		{name: "empty topic", topic: "", want: ErrInvalidTopic},
		{name: "wildcard topic", topic: "ok/rx/#", want: ErrInvalidTopic},
		{name: "qos 2", topic: "ok/rx/A1", qos: 2, want: ErrInvalidQoS},
		{name: "oversized", topic: "ok/rx/A1", payload: make([]byte, maxPayloadSize+1), want: ErrPublishFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.Publish(tt.topic, tt.payload, tt.qos, false); !errors.Is(err, tt.want) {
				t.Errorf("Publish() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestConnect_CancelledContext(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.Host = "10.255.255.1" // non-routable, never answers
	cfg.ConnectTimeout = 5 * time.Second
	c := New(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Connect(ctx, "okmqtt-test", nil)
	if !errors.Is(err, ErrConnectionFailed) {
		t.Fatalf("Connect() error = %v, want ErrConnectionFailed", err)
	}
	if c.IsConnected() {
		t.Error("IsConnected() = true after failed Connect")
	}
}
