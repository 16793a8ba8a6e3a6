package llap

import (
	"fmt"
	"strings"
)

// TopicConfig is the MQTT side of the wire contract.
type TopicConfig struct {
	// Subscribe is the command subscription pattern, e.g. "ok/tx/#".
	Subscribe string

	// SubscribeMask is the literal prefix of command topics, e.g. "ok/tx/".
	SubscribeMask string

	// Publish is the telemetry prefix, e.g. "ok/rx".
	Publish string

	// PerDevice publishes to Publish + "/" + device ID instead of Publish.
	PerDevice bool

	// Status is the liveness topic, e.g. "ok/status".
	Status string
}

// DefaultTopics returns the OpenKontrol topic layout.
func DefaultTopics() TopicConfig {
	return TopicConfig{
		Subscribe:     "ok/tx/#",
		SubscribeMask: "ok/tx/",
		Publish:       "ok/rx",
		PerDevice:     true,
		Status:        DefaultStatusTopic,
	}
}

// Mapper converts between frames and MQTT topic/payload pairs.
// All methods are pure functions of the frame and the static configuration.
type Mapper struct {
	cfg   TopicConfig
	codec Codec
}

// NewMapper validates cfg and returns a Mapper.
//
// The outbound prefix must not fall under the command mask (and vice
// versa), otherwise every publish would be consumed again as a command.
func NewMapper(cfg TopicConfig, codec Codec) (*Mapper, error) {
	if cfg.SubscribeMask == "" || !strings.HasSuffix(cfg.SubscribeMask, "/") {
		return nil, fmt.Errorf("command mask %q must end with '/'", cfg.SubscribeMask)
	}
	if !strings.HasPrefix(cfg.Subscribe, cfg.SubscribeMask) {
		return nil, fmt.Errorf("command pattern %q is outside mask %q", cfg.Subscribe, cfg.SubscribeMask)
	}
	if cfg.Publish == "" {
		return nil, fmt.Errorf("publish prefix is required")
	}

	pub := strings.TrimSuffix(cfg.Publish, "/") + "/"
	if strings.HasPrefix(pub, cfg.SubscribeMask) || strings.HasPrefix(cfg.SubscribeMask, pub) {
		return nil, fmt.Errorf("publish prefix %q overlaps command mask %q", cfg.Publish, cfg.SubscribeMask)
	}

	return &Mapper{cfg: cfg, codec: codec}, nil
}

// CommandPattern returns the subscription pattern for device commands.
func (m *Mapper) CommandPattern() string {
	return m.cfg.Subscribe
}

// StatusTopic returns the liveness topic.
func (m *Mapper) StatusTopic() string {
	return m.cfg.Status
}

// PublishTopic returns the telemetry topic for f.
//
// Example: ok/rx/A1 (per device) or ok/rx (shared)
func (m *Mapper) PublishTopic(f Frame) string {
	prefix := strings.TrimSuffix(m.cfg.Publish, "/")
	if !m.cfg.PerDevice {
		return prefix
	}
	return prefix + "/" + f.DeviceID
}

// PublishPayload returns the wire encoding of f, which is what telemetry
// subscribers receive.
func (m *Mapper) PublishPayload(f Frame) ([]byte, error) {
	return m.codec.EncodeFrame(f)
}

// IsCommandTopic reports whether topic sits under the command mask.
func (m *Mapper) IsCommandTopic(topic string) bool {
	return strings.HasPrefix(topic, m.cfg.SubscribeMask)
}

// FromSubscribedTopic maps an inbound command to the frame to transmit.
//
//   - ok/tx/A1 + "OFF"            → Frame{A1, OFF}
//   - ok/tx/a1 + "OFF"            → Frame{A1, OFF} (IDs are upper-cased)
//   - ok/tx/   + "aA1OFF      "   → Frame{A1, OFF} (raw frame on the bare mask)
//
// Topics outside the mask, or with further levels below the device ID,
// fail with ErrUnknownTopic regardless of the payload. Field bounds are
// enforced as for Encode.
func (m *Mapper) FromSubscribedTopic(topic string, payload []byte) (Frame, error) {
	if !m.IsCommandTopic(topic) {
		return Frame{}, fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}

	suffix := topic[len(m.cfg.SubscribeMask):]
	if strings.Contains(suffix, "/") {
		return Frame{}, fmt.Errorf("%w: %s has levels below the device id", ErrUnknownTopic, topic)
	}

	if suffix == "" {
		return m.codec.Decode(payload)
	}

	return m.codec.NewFrame(strings.ToUpper(suffix), strings.TrimSpace(string(payload)))
}
