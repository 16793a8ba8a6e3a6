package main

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/okmqtt/internal/bridges/llap"
	"github.com/nerrad567/okmqtt/internal/infrastructure/config"
	"github.com/nerrad567/okmqtt/internal/infrastructure/logging"
	"github.com/nerrad567/okmqtt/internal/infrastructure/metrics"
	"github.com/nerrad567/okmqtt/internal/infrastructure/mqtt"
)

// run is the bridge lifecycle, separated from the cobra wiring for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - configPath: YAML file to load, or "" for defaults plus environment
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, configPath string) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting okmqtt",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version).With("bridge_id", cfg.Bridge.ID)
	log.Info("configuration loaded",
		"config_path", configPath,
		"serial_port", cfg.Serial.Port,
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
	)

	codec, err := llap.NewCodec(cfg.Serial.Padding)
	if err != nil {
		return fmt.Errorf("serial padding: %w", err)
	}

	// The radio is the one hard dependency: without it there is nothing to bridge.
	port, err := llap.OpenSerial(llap.SerialConfig{
		Port:        cfg.Serial.Port,
		BaudRate:    cfg.Serial.Baud,
		ReadTimeout: cfg.Serial.ReadTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening radio: %w", err)
	}
	log.Info("serial port opened", "port", cfg.Serial.Port, "baud", cfg.Serial.Baud)

	mqttClient := mqtt.New(cfg.MQTT)
	mqttClient.SetLogger(log.With("component", "mqtt"))
	defer func() {
		// Engine shutdown already disconnects; Close is a no-op then.
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT client", "error", closeErr)
		}
	}()

	var (
		m   *metrics.Metrics
		obs llap.Observer
	)
	if cfg.Metrics.Enabled {
		m = metrics.New("")
		if err := m.RegisterInboxDropped("", mqttClient.Dropped); err != nil {
			port.Close() //nolint:errcheck // already failing
			return fmt.Errorf("registering metrics: %w", err)
		}
		obs = m
	}

	engine, err := llap.NewEngine(engineOptions(cfg, codec, newTransport(mqttClient), port, log.With("component", "bridge"), obs))
	if err != nil {
		port.Close() //nolint:errcheck // already failing
		return fmt.Errorf("creating bridge: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return engine.Run(gctx)
	})
	if m != nil {
		g.Go(func() error {
			log.Info("metrics server listening", "addr", cfg.Metrics.Listen)
			return m.Serve(gctx, cfg.Metrics.Listen)
		})
	}

	log.Info("okmqtt started", "client_id", engine.Supervisor().ClientID())

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("shutdown complete")
	return nil
}

// engineOptions maps the loaded configuration onto the bridge engine.
func engineOptions(cfg *config.Config, codec llap.Codec, transport llap.Transport, port llap.Port, log llap.Logger, obs llap.Observer) llap.EngineOptions {
	return llap.EngineOptions{
		Transport: transport,
		Port:      port,
		Codec:     codec,
		Topics: llap.TopicConfig{
			Subscribe:     cfg.Topics.Subscribe,
			SubscribeMask: cfg.Topics.SubscribeMask,
			Publish:       cfg.Topics.Publish,
			PerDevice:     cfg.Topics.PerDevice,
			Status:        cfg.Topics.Status,
		},
		Supervisor: llap.SupervisorConfig{
			ClientID:      mqtt.ClientID(cfg.MQTT),
			RetryInterval: cfg.Supervisor.RetryInterval,
			MaxFailures:   cfg.Supervisor.MaxFailures,
		},
		Status: llap.AnnouncerConfig{
			Query:    cfg.Topics.StatusQuery,
			Running:  cfg.Topics.Running,
			Restart:  cfg.Topics.Restart,
			Interval: cfg.Status.Interval,
		},
		TickInterval:    cfg.Bridge.TickInterval,
		MaxReadsPerTick: cfg.Bridge.MaxReadsPerTick,
		Logger:          log,
		Observer:        obs,
	}
}
