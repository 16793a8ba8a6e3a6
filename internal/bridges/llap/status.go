package llap

import (
	"bytes"
	"fmt"
	"time"
)

// Status defaults, matching what OpenKontrol dashboards expect.
const (
	DefaultStatusTopic    = "ok/status"
	DefaultStatusQuery    = "STATUS"
	DefaultRunningPayload = "Running: OKMQTT"
	DefaultRestartPayload = "Restart: OKMQTT"
	DefaultStatusInterval = 30 * time.Second
)

// AnnouncerConfig holds configuration for the status announcer.
type AnnouncerConfig struct {
	// Topic is the liveness topic. Default: ok/status.
	Topic string

	// Query is the payload on Topic that requests an immediate announcement.
	// Default: STATUS.
	Query string

	// Running is published retained while the bridge is up.
	Running string

	// Restart is the last will, and is also published on clean shutdown.
	Restart string

	// Interval between periodic announcements. Default: 30 seconds.
	Interval time.Duration
}

// Announcer publishes the bridge's liveness on the status topic.
//
// The retained Running message is sent when a session is established, on
// every Interval, and whenever someone publishes the Query payload to the
// status topic. The Restart payload doubles as the MQTT last will so
// subscribers see the bridge go away whether or not it exits cleanly.
type Announcer struct {
	cfg           AnnouncerConfig
	transport     Transport
	rec           *recorder
	lastAnnounced time.Time
}

func newAnnouncer(cfg AnnouncerConfig, transport Transport, rec *recorder) *Announcer {
	if cfg.Topic == "" {
		cfg.Topic = DefaultStatusTopic
	}
	if cfg.Query == "" {
		cfg.Query = DefaultStatusQuery
	}
	if cfg.Running == "" {
		cfg.Running = DefaultRunningPayload
	}
	if cfg.Restart == "" {
		cfg.Restart = DefaultRestartPayload
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultStatusInterval
	}
	return &Announcer{cfg: cfg, transport: transport, rec: rec}
}

// Announce publishes the Running payload retained and records the time.
func (a *Announcer) Announce(now time.Time) error {
	if err := a.transport.Publish(a.cfg.Topic, []byte(a.cfg.Running), true); err != nil {
		return fmt.Errorf("announce status: %w", err)
	}
	a.lastAnnounced = now
	a.rec.announced()
	return nil
}

// Due reports whether the periodic announcement should be sent.
func (a *Announcer) Due(now time.Time) bool {
	return a.lastAnnounced.IsZero() || now.Sub(a.lastAnnounced) >= a.cfg.Interval
}

// IsQuery reports whether payload on the status topic asks for an
// announcement. Our own Running and Restart messages are not queries.
func (a *Announcer) IsQuery(payload []byte) bool {
	return bytes.EqualFold(bytes.TrimSpace(payload), []byte(a.cfg.Query))
}

// PublishOffline publishes the Restart payload retained. Used on clean
// shutdown, where the broker would otherwise discard the will.
func (a *Announcer) PublishOffline() error {
	if err := a.transport.Publish(a.cfg.Topic, []byte(a.cfg.Restart), true); err != nil {
		return fmt.Errorf("publish offline status: %w", err)
	}
	return nil
}

// LastAnnounced returns when Running was last published, or the zero time.
func (a *Announcer) LastAnnounced() time.Time {
	return a.lastAnnounced
}

// Topic returns the status topic.
func (a *Announcer) Topic() string {
	return a.cfg.Topic
}

// WillTopic returns the topic for the last will.
func (a *Announcer) WillTopic() string {
	return a.cfg.Topic
}

// WillPayload returns the last will payload.
func (a *Announcer) WillPayload() []byte {
	return []byte(a.cfg.Restart)
}
