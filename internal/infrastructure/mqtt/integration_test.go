package mqtt

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/okmqtt/internal/infrastructure/config"
)

// Broker tests need a running MQTT broker. Set OKMQTT_TEST_BROKER to
// host:port (e.g. 127.0.0.1:1883) to enable them:
//
//	OKMQTT_TEST_BROKER=127.0.0.1:1883 go test -v ./internal/infrastructure/mqtt/...

func brokerConfig(t *testing.T) config.MQTTConfig {
	t.Helper()
	addr := os.Getenv("OKMQTT_TEST_BROKER")
	if addr == "" {
		t.Skip("OKMQTT_TEST_BROKER not set")
	}

	host, portStr, ok := strings.Cut(addr, ":")
	if !ok {
		t.Fatalf("OKMQTT_TEST_BROKER=%q, want host:port", addr)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("OKMQTT_TEST_BROKER port: %v", err)
	}

	cfg := testConfig()
	cfg.Broker.Host = host
	cfg.Broker.Port = port
	cfg.Broker.ClientID = "okmqtt-it"
	cfg.Broker.UniqueClientID = true
	return cfg
}

func connectTest(t *testing.T, cfg config.MQTTConfig, will *Will) *Client {
	t.Helper()
	c := New(cfg)
	if err := c.Connect(context.Background(), ClientID(cfg), will); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(c.Disconnect)
	return c
}

func pollWithin(c *Client, d time.Duration) (Message, bool) {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if msg, ok := c.Poll(); ok {
			return msg, true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return Message{}, false
}

func TestIntegration_ConnectAndHealth(t *testing.T) {
	c := connectTest(t, brokerConfig(t), nil)

	if !c.IsConnected() {
		t.Fatal("IsConnected() = false after Connect")
	}
	if err := c.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	c.Disconnect()
	if c.IsConnected() {
		t.Error("IsConnected() = true after Disconnect")
	}
}

func TestIntegration_PublishSubscribeRoundTrip(t *testing.T) {
	cfg := brokerConfig(t)
	c := connectTest(t, cfg, nil)

	topic := "okmqtt-it/" + ClientID(cfg) + "/tx/A1"
	if err := c.Subscribe(strings.TrimSuffix(topic, "A1") + "#"); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if err := c.Publish(topic, []byte("OFF"), c.QoS(), false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	msg, ok := pollWithin(c, 2*time.Second)
	if !ok {
		t.Fatal("no message received")
	}
	if msg.Topic != topic || string(msg.Payload) != "OFF" {
		t.Errorf("received %+v", msg)
	}
}

func TestIntegration_ReconnectNeedsResubscribe(t *testing.T) {
	cfg := brokerConfig(t)
	c := connectTest(t, cfg, nil)

	filter := "okmqtt-it/" + ClientID(cfg) + "/#"
	if err := c.Subscribe(filter); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	// A new clean session has no subscriptions until Subscribe is called again.
	if err := c.Connect(context.Background(), ClientID(cfg), nil); err != nil {
		t.Fatalf("reconnect error = %v", err)
	}
	topic := strings.TrimSuffix(filter, "#") + "probe"
	if err := c.Publish(topic, []byte("1"), c.QoS(), false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if _, ok := pollWithin(c, 300*time.Millisecond); ok {
		t.Error("message delivered without resubscribing")
	}
}

func TestIntegration_BadCredentials(t *testing.T) {
	if os.Getenv("OKMQTT_TEST_BROKER_AUTH") == "" {
		t.Skip("OKMQTT_TEST_BROKER_AUTH not set (broker must require authentication)")
	}
	cfg := brokerConfig(t)
	cfg.Auth = config.MQTTAuthConfig{Username: "nobody", Password: "wrong"}

	err := New(cfg).Connect(context.Background(), ClientID(cfg), nil)
	if !errors.Is(err, ErrAuthRejected) {
		t.Errorf("Connect() error = %v, want ErrAuthRejected", err)
	}
}
