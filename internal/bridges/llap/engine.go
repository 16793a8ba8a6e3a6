package llap

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultTickInterval is the pause between engine ticks.
const DefaultTickInterval = 10 * time.Millisecond

// maxStatusEchoes bounds the non-query status messages skipped in one tick.
const maxStatusEchoes = 8

// EngineOptions holds everything needed to build an Engine.
type EngineOptions struct {
	// Transport is the MQTT session. Required.
	Transport Transport

	// Port is the serial radio link. Required.
	Port Port

	// Codec sets the padding used on the wire.
	Codec Codec

	// Topics is the MQTT side of the wire contract.
	Topics TopicConfig

	// Supervisor configures reconnection. Subscriptions and the will are
	// filled in by NewEngine.
	Supervisor SupervisorConfig

	// Status configures liveness announcements. Topic defaults to
	// Topics.Status.
	Status AnnouncerConfig

	// TickInterval is used by Run. Default: 10ms.
	TickInterval time.Duration

	// MaxReadsPerTick bounds serial reads per tick. Default: 1.
	MaxReadsPerTick int

	// Logger is optional.
	Logger Logger

	// Observer is optional and receives every counted event.
	Observer Observer
}

// Engine moves frames between the radio and the broker.
//
// Each Tick runs the same fixed sequence: connection supervision, at most
// one radio frame out to MQTT, at most one MQTT command in to the radio
// (echoes of our own status are skipped without using that slot),
// then the periodic status announcement. Nothing in a tick blocks on the
// network for longer than a single connect attempt, and nothing in the
// engine is shared with other goroutines.
//
// Thread Safety:
//   - Not safe for concurrent use. Tick, Run and Shutdown must be called
//     from one goroutine. Observers must be safe for concurrent reads if
//     they are exported elsewhere (e.g. Prometheus).
type Engine struct {
	transport  Transport
	port       Port
	codec      Codec
	mapper     *Mapper
	reader     *Reader
	supervisor *Supervisor
	announcer  *Announcer
	rec        *recorder
	logger     Logger

	tickInterval time.Duration
	serialDown   bool
	stopped      bool
}

// NewEngine validates opts and wires the bridge components together.
func NewEngine(opts EngineOptions) (*Engine, error) {
	if opts.Transport == nil {
		return nil, fmt.Errorf("transport is required")
	}
	if opts.Port == nil {
		return nil, fmt.Errorf("serial port is required")
	}

	mapper, err := NewMapper(opts.Topics, opts.Codec)
	if err != nil {
		return nil, fmt.Errorf("topics: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = nopLogger{}
	}
	rec := newRecorder(opts.Observer)

	statusCfg := opts.Status
	if statusCfg.Topic == "" {
		statusCfg.Topic = opts.Topics.Status
	}
	announcer := newAnnouncer(statusCfg, opts.Transport, rec)

	supCfg := opts.Supervisor
	supCfg.Subscriptions = []string{mapper.CommandPattern(), announcer.Topic()}
	supCfg.WillTopic = announcer.WillTopic()
	supCfg.WillPayload = announcer.WillPayload()

	tick := opts.TickInterval
	if tick <= 0 {
		tick = DefaultTickInterval
	}

	return &Engine{
		transport:    opts.Transport,
		port:         opts.Port,
		codec:        opts.Codec,
		mapper:       mapper,
		reader:       NewReader(opts.Port, opts.Codec, opts.MaxReadsPerTick),
		supervisor:   newSupervisor(supCfg, opts.Transport, rec, logger),
		announcer:    announcer,
		rec:          rec,
		logger:       logger,
		tickInterval: tick,
	}, nil
}

// Run ticks until ctx is cancelled, then shuts down gracefully.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()

	e.logger.Info("bridge started",
		"command_topic", e.mapper.CommandPattern(),
		"status_topic", e.announcer.Topic(),
		"tick_interval", e.tickInterval)

	e.Tick(ctx, time.Now())
	for {
		select {
		case <-ctx.Done():
			return e.Shutdown()
		case now := <-ticker.C:
			e.Tick(ctx, now)
		}
	}
}

// Tick runs one pass of the bridge loop.
func (e *Engine) Tick(ctx context.Context, now time.Time) {
	if e.stopped {
		return
	}

	if e.supervisor.Tick(ctx, now) {
		e.announce(now)
	}

	e.pumpRadio()
	e.pumpBroker(now)

	if e.supervisor.Connected() && e.announcer.Due(now) {
		e.announce(now)
	}
}

// pumpRadio forwards at most one frame from the radio to MQTT.
func (e *Engine) pumpRadio() {
	f, ok, err := e.reader.Poll()
	if err != nil {
		if errors.Is(err, ErrMalformed) {
			e.rec.frameMalformed()
			e.logger.Warn("dropped malformed frame", "error", err)
			return
		}
		e.rec.serialFailed()
		if !e.serialDown {
			e.logger.Error("serial read failed", "error", err)
			e.serialDown = true
		}
		return
	}
	if e.serialDown {
		e.logger.Info("serial read recovered")
		e.serialDown = false
	}
	if !ok {
		return
	}

	e.rec.frameReceived()

	if !e.supervisor.Connected() {
		e.rec.frameDropped()
		e.logger.Debug("dropped frame while disconnected", "frame", f, "state", e.supervisor.State())
		return
	}

	topic := e.mapper.PublishTopic(f)
	payload, err := e.mapper.PublishPayload(f)
	if err != nil {
		e.rec.frameMalformed()
		e.logger.Warn("cannot re-encode frame", "frame", f, "error", err)
		return
	}

	if err := e.transport.Publish(topic, payload, false); err != nil {
		e.rec.publishFailed()
		e.logger.Warn("publish failed", "topic", topic, "error", err)
		return
	}

	e.rec.framePublished()
	e.logger.Debug("frame published", "topic", topic, "payload", string(payload))
}

// pumpBroker handles at most one received MQTT message.
func (e *Engine) pumpBroker(now time.Time) {
	if !e.supervisor.Connected() {
		return
	}

	for i := 0; i < maxStatusEchoes+1; i++ {
		topic, payload, ok := e.transport.Poll()
		if !ok {
			return
		}
		if topic != e.announcer.Topic() {
			e.writeCommand(topic, payload)
			return
		}
		if e.announcer.IsQuery(payload) {
			e.logger.Debug("status requested")
			e.announce(now)
			return
		}
		// Our own retained announcement coming back; it costs no work slot.
	}
}

// writeCommand maps one command message to a frame and writes it to the radio.
func (e *Engine) writeCommand(topic string, payload []byte) {
	f, err := e.mapper.FromSubscribedTopic(topic, payload)
	if err != nil {
		e.rec.commandFailed()
		e.logger.Warn("ignored command", "topic", topic, "payload", string(payload), "error", err)
		return
	}

	raw, err := e.codec.EncodeFrame(f)
	if err != nil {
		e.rec.commandFailed()
		e.logger.Warn("cannot encode command", "frame", f, "error", err)
		return
	}

	if _, err := e.port.Write(raw); err != nil {
		e.rec.commandFailed()
		e.rec.serialFailed()
		e.logger.Error("serial write failed", "frame", f, "error", err)
		return
	}

	e.rec.commandWritten()
	e.logger.Debug("command written", "topic", topic, "frame", string(raw))
}

func (e *Engine) announce(now time.Time) {
	if err := e.announcer.Announce(now); err != nil {
		e.logger.Warn("status announcement failed", "error", err)
	}
}

// Shutdown publishes the offline marker, disconnects and closes the port.
// Safe to call more than once.
func (e *Engine) Shutdown() error {
	if e.stopped {
		return nil
	}
	e.stopped = true

	if e.supervisor.Connected() {
		if err := e.announcer.PublishOffline(); err != nil {
			e.logger.Warn("offline announcement failed", "error", err)
		}
	}
	e.transport.Disconnect()

	if err := e.port.Close(); err != nil {
		return fmt.Errorf("close serial port: %w", err)
	}

	e.logger.Info("bridge stopped",
		"frames_published", e.rec.stats.FramesPublished,
		"commands_written", e.rec.stats.CommandsWritten)
	return nil
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	return e.rec.stats
}

// State returns the MQTT connection state.
func (e *Engine) State() ConnectionState {
	return e.supervisor.State()
}

// Supervisor returns the connection supervisor.
func (e *Engine) Supervisor() *Supervisor {
	return e.supervisor
}

// Announcer returns the status announcer.
func (e *Engine) Announcer() *Announcer {
	return e.announcer
}

// Mapper returns the topic mapper.
func (e *Engine) Mapper() *Mapper {
	return e.mapper
}
