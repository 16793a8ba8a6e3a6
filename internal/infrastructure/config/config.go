package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for all environment variable overrides.
const EnvPrefix = "OKMQTT_"

// Config is the root configuration structure for the OKMQTT bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Bridge     BridgeConfig     `yaml:"bridge" envPrefix:"BRIDGE_"`
	Serial     SerialConfig     `yaml:"serial" envPrefix:"SERIAL_"`
	MQTT       MQTTConfig       `yaml:"mqtt" envPrefix:"MQTT_"`
	Topics     TopicsConfig     `yaml:"topics" envPrefix:"TOPICS_"`
	Supervisor SupervisorConfig `yaml:"supervisor" envPrefix:"SUPERVISOR_"`
	Status     StatusConfig     `yaml:"status" envPrefix:"STATUS_"`
	Metrics    MetricsConfig    `yaml:"metrics" envPrefix:"METRICS_"`
	Logging    LoggingConfig    `yaml:"logging" envPrefix:"LOG_"`
}

// BridgeConfig contains control loop settings.
type BridgeConfig struct {
	// ID identifies this bridge instance in logs.
	ID string `yaml:"id" env:"ID"`

	// TickInterval is the period of the cooperative control loop.
	TickInterval time.Duration `yaml:"tick_interval" env:"TICK_INTERVAL"`

	// MaxReadsPerTick bounds the serial reads performed by one tick.
	MaxReadsPerTick int `yaml:"max_reads_per_tick" env:"MAX_READS_PER_TICK"`
}

// SerialConfig describes the radio link (XRF or compatible LLAP transceiver).
type SerialConfig struct {
	Port string `yaml:"port" env:"PORT"`
	Baud int    `yaml:"baud" env:"BAUD"`

	// ReadTimeout turns serial reads into a bounded poll.
	ReadTimeout time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`

	// Padding fills short LLAP payloads: " " or "-".
	Padding string `yaml:"padding" env:"PADDING"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker         MQTTBrokerConfig `yaml:"broker" envPrefix:"BROKER_"`
	Auth           MQTTAuthConfig   `yaml:"auth"`
	QoS            int              `yaml:"qos" env:"QOS"`
	KeepAlive      time.Duration    `yaml:"keep_alive" env:"KEEP_ALIVE"`
	ConnectTimeout time.Duration    `yaml:"connect_timeout" env:"CONNECT_TIMEOUT"`

	// InboxSize bounds the number of received messages waiting for the control loop.
	InboxSize int `yaml:"inbox_size" env:"INBOX_SIZE"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	TLS      bool   `yaml:"tls" env:"TLS"`
	ClientID string `yaml:"client_id" env:"CLIENT_ID"`

	// UniqueClientID appends a random suffix so several bridges can share a broker.
	UniqueClientID bool `yaml:"unique_client_id" env:"UNIQUE_CLIENT_ID"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username" env:"USERNAME"`
	Password string `yaml:"password" env:"PASSWORD"`
}

// String returns a string representation with the password masked.
func (a MQTTAuthConfig) String() string {
	password := ""
	if a.Password != "" {
		password = "[REDACTED]"
	}
	return fmt.Sprintf("MQTTAuthConfig{Username:%q, Password:%s}", a.Username, password)
}

// TopicsConfig holds the MQTT wire contract.
type TopicsConfig struct {
	// Subscribe is the command subscription pattern (ok/tx/#).
	Subscribe string `yaml:"subscribe" env:"SUBSCRIBE"`

	// SubscribeMask is the literal prefix stripped from command topics (ok/tx/).
	SubscribeMask string `yaml:"subscribe_mask" env:"SUBSCRIBE_MASK"`

	// Publish is the telemetry prefix (ok/rx).
	Publish string `yaml:"publish" env:"PUBLISH"`

	// PerDevice appends "/<device id>" to Publish.
	PerDevice bool `yaml:"per_device" env:"PER_DEVICE"`

	Status      string `yaml:"status" env:"STATUS"`
	StatusQuery string `yaml:"status_query" env:"STATUS_QUERY"`
	Running     string `yaml:"running" env:"RUNNING"`
	Restart     string `yaml:"restart" env:"RESTART"`
}

// SupervisorConfig controls broker reconnection.
type SupervisorConfig struct {
	// RetryInterval is the flat delay between connection attempts.
	RetryInterval time.Duration `yaml:"retry_interval" env:"RETRY_INTERVAL"`

	// MaxFailures is the number of consecutive failures before the Faulted state.
	MaxFailures int `yaml:"max_failures" env:"MAX_FAILURES"`
}

// StatusConfig controls the liveness announcement.
type StatusConfig struct {
	Interval time.Duration `yaml:"interval" env:"INTERVAL"`
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Listen  string `yaml:"listen" env:"LISTEN"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
	Output string `yaml:"output" env:"OUTPUT"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. .env file in the working directory, if present
//  4. Environment variables (override file values)
//
// Environment variables follow the pattern: OKMQTT_SECTION_KEY
// For example: OKMQTT_SERIAL_PORT, OKMQTT_MQTT_BROKER_HOST
//
// An empty path skips the YAML step and uses defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadDotEnv loads ./.env into the process environment. A missing file is fine.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

// applyEnvOverrides applies OKMQTT_* environment variables on top of cfg.
// Variables that are not set leave the current value untouched.
func applyEnvOverrides(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("applying environment overrides: %w", err)
	}
	return nil
}

// Default returns a Config matching the reference OpenKontrol gateway build.
func Default() *Config {
	return &Config{
		Bridge: BridgeConfig{
			ID:              "okmqtt",
			TickInterval:    10 * time.Millisecond,
			MaxReadsPerTick: 1,
		},
		Serial: SerialConfig{
			Port:        "/dev/ttyAMA0",
			Baud:        9600,
			ReadTimeout: 5 * time.Millisecond,
			Padding:     " ",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "10.0.0.2",
				Port:     1883,
				ClientID: "OpenKnotrol",
			},
			QoS:            0,
			KeepAlive:      15 * time.Second,
			ConnectTimeout: 5 * time.Second,
			InboxSize:      32,
		},
		Topics: TopicsConfig{
			Subscribe:     "ok/tx/#",
			SubscribeMask: "ok/tx/",
			Publish:       "ok/rx",
			PerDevice:     true,
			Status:        "ok/status",
			StatusQuery:   "STATUS",
			Running:       "Running: OKMQTT",
			Restart:       "Restart: OKMQTT",
		},
		Supervisor: SupervisorConfig{
			RetryInterval: 5 * time.Second,
			MaxFailures:   5,
		},
		Status: StatusConfig{
			Interval: 30 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  "127.0.0.1:9108",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// Validate checks the configuration for errors.
// All problems are reported together.
func (c *Config) Validate() error {
	var errs []string

	if c.Bridge.TickInterval <= 0 {
		errs = append(errs, "bridge.tick_interval must be positive")
	}
	if c.Bridge.MaxReadsPerTick < 1 {
		errs = append(errs, "bridge.max_reads_per_tick must be at least 1")
	}

	if c.Serial.Port == "" {
		errs = append(errs, "serial.port is required")
	}
	if c.Serial.Baud <= 0 {
		errs = append(errs, "serial.baud must be positive")
	}
	if c.Serial.ReadTimeout <= 0 {
		errs = append(errs, "serial.read_timeout must be positive")
	}
	if c.Serial.Padding != " " && c.Serial.Padding != "-" {
		errs = append(errs, `serial.padding must be " " or "-"`)
	}

	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.Broker.ClientID == "" {
		errs = append(errs, "mqtt.broker.client_id is required")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 1 {
		errs = append(errs, "mqtt.qos must be 0 or 1")
	}
	if c.MQTT.ConnectTimeout <= 0 {
		errs = append(errs, "mqtt.connect_timeout must be positive")
	}
	if c.MQTT.InboxSize < 1 {
		errs = append(errs, "mqtt.inbox_size must be at least 1")
	}

	errs = append(errs, c.Topics.validate()...)

	if c.Supervisor.RetryInterval <= 0 {
		errs = append(errs, "supervisor.retry_interval must be positive")
	}
	if c.Supervisor.MaxFailures < 1 {
		errs = append(errs, "supervisor.max_failures must be at least 1")
	}

	if c.Status.Interval <= 0 {
		errs = append(errs, "status.interval must be positive")
	}

	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		errs = append(errs, "metrics.listen is required when metrics are enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// validate checks the topic contract, including the feedback-loop rule:
// nothing we publish may land under the command subscription.
func (t TopicsConfig) validate() []string {
	var errs []string

	if t.Subscribe == "" {
		errs = append(errs, "topics.subscribe is required")
	}
	if t.SubscribeMask == "" || !strings.HasSuffix(t.SubscribeMask, "/") {
		errs = append(errs, "topics.subscribe_mask must end with '/'")
	}
	if t.SubscribeMask != "" && !strings.HasPrefix(t.Subscribe, t.SubscribeMask) {
		errs = append(errs, "topics.subscribe must start with topics.subscribe_mask")
	}
	if t.Publish == "" || strings.ContainsAny(t.Publish, "+#") {
		errs = append(errs, "topics.publish must be a non-empty topic without wildcards")
	}
	if t.Status == "" || strings.ContainsAny(t.Status, "+#") {
		errs = append(errs, "topics.status must be a non-empty topic without wildcards")
	}
	if t.Running == "" || t.Restart == "" {
		errs = append(errs, "topics.running and topics.restart are required")
	}

	if t.SubscribeMask != "" && t.Publish != "" {
		pub := strings.TrimSuffix(t.Publish, "/") + "/"
		if strings.HasPrefix(pub, t.SubscribeMask) || strings.HasPrefix(t.SubscribeMask, pub) {
			errs = append(errs, "topics.publish and topics.subscribe_mask must not overlap")
		}
	}
	if t.SubscribeMask != "" && strings.HasPrefix(t.Status+"/", t.SubscribeMask) {
		errs = append(errs, "topics.status must not fall under topics.subscribe_mask")
	}

	return errs
}

// BrokerAddress returns host:port of the configured broker.
func (c *Config) BrokerAddress() string {
	return fmt.Sprintf("%s:%d", c.MQTT.Broker.Host, c.MQTT.Broker.Port)
}
