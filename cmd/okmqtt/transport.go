package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerrad567/okmqtt/internal/bridges/llap"
	"github.com/nerrad567/okmqtt/internal/infrastructure/mqtt"
)

// mqttSession is the part of *mqtt.Client the bridge needs.
type mqttSession interface {
	Connect(ctx context.Context, clientID string, will *mqtt.Will) error
	Disconnect()
	IsConnected() bool
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(filter string) error
	Poll() (mqtt.Message, bool)
	Flush() int
	QoS() byte
}

// mqttTransport adapts the MQTT client to llap.Transport and translates
// its errors into the bridge's error kinds.
type mqttTransport struct {
	client mqttSession
}

func newTransport(client mqttSession) *mqttTransport {
	return &mqttTransport{client: client}
}

func (t *mqttTransport) Connect(ctx context.Context, clientID, willTopic string, willPayload []byte) error {
	var will *mqtt.Will
	if willTopic != "" {
		will = &mqtt.Will{Topic: willTopic, Payload: willPayload}
	}
	return connectError(t.client.Connect(ctx, clientID, will))
}

func (t *mqttTransport) Disconnect() {
	t.client.Disconnect()
}

func (t *mqttTransport) IsConnected() bool {
	return t.client.IsConnected()
}

func (t *mqttTransport) Publish(topic string, payload []byte, retained bool) error {
	return sessionError(t.client.Publish(topic, payload, t.client.QoS(), retained))
}

func (t *mqttTransport) Subscribe(pattern string) error {
	return sessionError(t.client.Subscribe(pattern))
}

func (t *mqttTransport) Poll() (string, []byte, bool) {
	msg, ok := t.client.Poll()
	if !ok {
		return "", nil, false
	}
	return msg.Topic, msg.Payload, true
}

func (t *mqttTransport) Flush() int {
	return t.client.Flush()
}

// connectError classifies a failed connect. Anything other than a
// credential refusal counts as an unreachable broker.
func connectError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mqtt.ErrAuthRejected):
		return fmt.Errorf("%w: %w", llap.ErrAuthRejected, err)
	default:
		return fmt.Errorf("%w: %w", llap.ErrUnreachable, err)
	}
}

// sessionError marks errors caused by a lost session.
func sessionError(err error) error {
	if err != nil && errors.Is(err, mqtt.ErrNotConnected) {
		return fmt.Errorf("%w: %w", llap.ErrNotConnected, err)
	}
	return err
}

var _ llap.Transport = (*mqttTransport)(nil)
