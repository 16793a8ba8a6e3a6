package llap

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Supervisor defaults.
const (
	DefaultRetryInterval = 5 * time.Second
	DefaultMaxFailures   = 5
)

// SupervisorConfig holds configuration for the connection supervisor.
type SupervisorConfig struct {
	// ClientID is the MQTT client identifier.
	ClientID string

	// RetryInterval is the flat delay between connection attempts.
	// Default: 5 seconds.
	RetryInterval time.Duration

	// MaxFailures is the number of consecutive failures after which the
	// supervisor reports Faulted. Attempts continue at RetryInterval.
	// Default: 5.
	MaxFailures int

	// Subscriptions are (re)registered after every successful connect,
	// before the session is reported as Connected.
	Subscriptions []string

	// WillTopic and WillPayload are the retained last will.
	WillTopic   string
	WillPayload []byte
}

// Supervisor keeps the MQTT session alive from the tick loop.
//
// It never blocks between attempts: Tick checks the transport, and when the
// session is down and the next attempt is due it makes exactly one connect
// attempt. Failures are counted; after MaxFailures in a row the state is
// Faulted, which the engine treats like Disconnected but surfaces to
// operators.
//
// Thread Safety:
//   - Not safe for concurrent use. Owned by the Engine's tick loop.
type Supervisor struct {
	cfg       SupervisorConfig
	transport Transport
	rec       *recorder
	logger    Logger

	state     ConnectionState
	failures  int
	nextTry   time.Time
	lastError error
}

func newSupervisor(cfg SupervisorConfig, transport Transport, rec *recorder, logger Logger) *Supervisor {
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = DefaultRetryInterval
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = DefaultMaxFailures
	}
	return &Supervisor{
		cfg:       cfg,
		transport: transport,
		rec:       rec,
		logger:    logger,
		state:     StateDisconnected,
	}
}

// Tick checks liveness and attempts a connection when one is due.
// Returns true when this call established a new session.
func (s *Supervisor) Tick(ctx context.Context, now time.Time) bool {
	if s.state == StateConnected {
		if s.transport.IsConnected() {
			return false
		}
		s.logger.Warn("mqtt connection lost")
		s.setState(StateDisconnected)
		s.nextTry = now
	}

	if now.Before(s.nextTry) {
		return false
	}

	return s.attempt(ctx, now)
}

// attempt makes one connect-and-subscribe attempt.
func (s *Supervisor) attempt(ctx context.Context, now time.Time) bool {
	prev := s.state
	s.setState(StateConnecting)

	err := s.connect(ctx)
	s.rec.connectAttempted(err == nil)
	if err == nil {
		if s.failures > 0 {
			s.logger.Info("mqtt connection restored", "after_failures", s.failures)
		} else {
			s.logger.Info("mqtt connected")
		}
		s.failures = 0
		s.lastError = nil
		s.setState(StateConnected)
		return true
	}

	s.transport.Disconnect()
	s.failures++
	s.lastError = err
	s.nextTry = now.Add(s.cfg.RetryInterval)

	args := []any{"error", err, "failures", s.failures, "retry_in", s.cfg.RetryInterval}
	if s.failures >= s.cfg.MaxFailures {
		if prev != StateFaulted {
			s.logger.Error("mqtt connection faulted", args...)
		}
		s.setState(StateFaulted)
		return false
	}

	if errors.Is(err, ErrAuthRejected) {
		s.logger.Error("mqtt connection rejected", args...)
	} else {
		s.logger.Warn("mqtt connection failed", args...)
	}
	s.setState(StateDisconnected)
	return false
}

func (s *Supervisor) connect(ctx context.Context) error {
	if err := s.transport.Connect(ctx, s.cfg.ClientID, s.cfg.WillTopic, s.cfg.WillPayload); err != nil {
		return err
	}

	// Anything queued before the session was confirmed belongs to the old one.
	if n := s.transport.Flush(); n > 0 {
		s.logger.Debug("discarded stale messages", "count", n)
	}

	for _, pattern := range s.cfg.Subscriptions {
		if err := s.transport.Subscribe(pattern); err != nil {
			return fmt.Errorf("subscribe %s: %w", pattern, err)
		}
	}
	return nil
}

func (s *Supervisor) setState(state ConnectionState) {
	if s.state == state {
		return
	}
	s.state = state
	s.rec.stateChanged(state)
}

// State returns the current connection state.
func (s *Supervisor) State() ConnectionState {
	return s.state
}

// Connected reports whether the session is established and subscribed.
func (s *Supervisor) Connected() bool {
	return s.state == StateConnected
}

// Failures returns the number of consecutive failed attempts.
func (s *Supervisor) Failures() int {
	return s.failures
}

// LastError returns the error from the most recent failed attempt, or nil
// once a connection succeeds.
func (s *Supervisor) LastError() error {
	return s.lastError
}

// NextAttempt returns when the next connect attempt is due.
func (s *Supervisor) NextAttempt() time.Time {
	return s.nextTry
}

// ClientID returns the MQTT client identifier used for every session.
func (s *Supervisor) ClientID() string {
	return s.cfg.ClientID
}
