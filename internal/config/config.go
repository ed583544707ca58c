package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/pv-alarm/internal/logger"
)

// Config holds the settings of the pv-alarm daemon and its tools.
type Config struct {
	// Repository selects where groups and entries are stored.
	Repository RepositoryConfig `yaml:"repository"`
	// Telemetry selects where PV samples come from.
	Telemetry TelemetryConfig `yaml:"telemetry"`
	// Events configures the event queue and its consumers.
	Events EventsConfig `yaml:"events"`
	// HealthAddress is the listen address of the gRPC health service.
	HealthAddress string `yaml:"health_addr"`
	// LogLevel is the minimum level written by the daemon.
	LogLevel string `yaml:"log_level"`
	// LogLevels overrides LogLevel per component, e.g. {"mqtt": "debug"}.
	LogLevels map[string]string `yaml:"log_levels,omitempty"`
	// Timeout bounds start-up, repository calls and health checks.
	Timeout time.Duration `yaml:"timeout"`
}

// RepositoryConfig describes the configuration storage.
type RepositoryConfig struct {
	// Kind is RepositoryMongoDB or RepositoryFile.
	Kind string `yaml:"kind"`
	// URI is the MongoDB connection string.
	URI string `yaml:"uri,omitempty"`
	// Database is the MongoDB database name.
	Database string `yaml:"database,omitempty"`
	// File is the YAML file used by the file repository.
	File string `yaml:"file,omitempty"`
}

// TelemetryConfig describes the PV sample source.
type TelemetryConfig struct {
	// Kind is TelemetryMQTT or TelemetryDummy.
	Kind string `yaml:"kind"`
	// Broker is the MQTT broker URL.
	Broker string `yaml:"broker,omitempty"`
	// ClientID identifies the daemon on the broker.
	ClientID string `yaml:"client_id,omitempty"`
	// Username is the optional broker user.
	Username string `yaml:"username,omitempty"`
	// Password is the optional broker password.
	Password string `yaml:"password,omitempty"`
	// TopicPrefix is prepended to PV names to form topics.
	TopicPrefix string `yaml:"topic_prefix,omitempty"`
	// QoS is the MQTT quality of service level.
	QoS byte `yaml:"qos"`
	// DeviceTime trusts the payload timestamp instead of receive time.
	DeviceTime bool `yaml:"device_time,omitempty"`
}

// EventsConfig describes event hand-off and dispatch.
type EventsConfig struct {
	// Topic is the MQTT topic events are published to; empty disables publishing.
	Topic string `yaml:"topic,omitempty"`
	// QueueCapacity is the maximum number of undelivered events.
	QueueCapacity int `yaml:"queue_capacity"`
	// TriggerInterval is the period of the manual re-evaluation of every entry.
	TriggerInterval time.Duration `yaml:"trigger_interval"`
	// GroupSyncInterval is the period of reloading group switches from the repository.
	GroupSyncInterval time.Duration `yaml:"group_sync_interval"`
}

const (
	// DefaultConfigFilename is the default filename for daemon settings.
	DefaultConfigFilename = "pv-alarm-settings.yaml"

	// DefaultRepositoryFilename is the default file of the file repository.
	DefaultRepositoryFilename = "pv-alarm-entries.yaml"

	// DefaultMongoURI is the MongoDB instance used when none is configured.
	DefaultMongoURI = "mongodb://localhost:27017/"

	// DefaultHealthAddress is the default gRPC health listen address.
	DefaultHealthAddress = "127.0.0.1:50061"

	// DefaultClientID is the default MQTT client identifier.
	DefaultClientID = "pv-alarm"

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultQueueCapacity is the default event queue capacity.
	DefaultQueueCapacity = 500

	// DefaultTriggerInterval is the default manual trigger period.
	DefaultTriggerInterval = time.Minute

	// DefaultGroupSyncInterval is the default group reload period.
	DefaultGroupSyncInterval = 10 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// RepositoryMongoDB stores the configuration in MongoDB.
	RepositoryMongoDB = "mongodb"

	// RepositoryFile stores the configuration in a YAML file.
	RepositoryFile = "file"

	// TelemetryMQTT reads samples from an MQTT broker.
	TelemetryMQTT = "mqtt"

	// TelemetryDummy never connects; entries only evaluate through manual triggers.
	TelemetryDummy = "dummy"

	maxQoS = 2
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errUnknownRepository is returned for an unsupported repository kind.
	errUnknownRepository = errors.New("unknown repository kind")
	// errUnknownTelemetry is returned for an unsupported telemetry kind.
	errUnknownTelemetry = errors.New("unknown telemetry kind")
	// errBrokerRequired is returned when MQTT is selected without a broker.
	errBrokerRequired = errors.New("mqtt broker must be provided")
	// errInvalidQoS is returned for a QoS outside 0..2.
	errInvalidQoS = errors.New("mqtt qos must be 0, 1 or 2")
	// errEventsNeedMQTT is returned when an events topic is set without an MQTT broker.
	errEventsNeedMQTT = errors.New("events topic requires mqtt telemetry")
	// errUnknownLogLevel is returned for a level name zap does not know.
	errUnknownLogLevel = errors.New("unknown log level")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions, the file may hold broker credentials.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills defaults and checks the provided settings.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.LogLevel == "" {
		settings.LogLevel = DefaultLogLevel
	}

	if err := validateLogLevels(settings); err != nil {
		return err
	}

	if settings.HealthAddress == "" {
		settings.HealthAddress = DefaultHealthAddress
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.HealthAddress); err != nil {
		return fmt.Errorf("invalid health address: %w", err)
	}

	if err := validateRepository(&settings.Repository); err != nil {
		return err
	}

	if err := validateTelemetry(&settings.Telemetry); err != nil {
		return err
	}

	return validateEvents(&settings.Events, settings.Telemetry.Kind)
}

func validateRepository(repo *RepositoryConfig) error {
	switch repo.Kind {
	case "", RepositoryFile:
		repo.Kind = RepositoryFile
		if repo.File == "" {
			repo.File = DefaultRepositoryFilename
		}
	case RepositoryMongoDB:
		if repo.URI == "" {
			repo.URI = DefaultMongoURI
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownRepository, repo.Kind)
	}

	return nil
}

func validateTelemetry(telemetry *TelemetryConfig) error {
	switch telemetry.Kind {
	case "", TelemetryDummy:
		telemetry.Kind = TelemetryDummy
		return nil
	case TelemetryMQTT:
	default:
		return fmt.Errorf("%w: %q", errUnknownTelemetry, telemetry.Kind)
	}

	if telemetry.Broker == "" {
		return errBrokerRequired
	}

	if _, err := url.ParseRequestURI(telemetry.Broker); err != nil {
		return fmt.Errorf("invalid broker URI: %w", err)
	}

	if telemetry.QoS > maxQoS {
		return errInvalidQoS
	}

	if telemetry.ClientID == "" {
		telemetry.ClientID = DefaultClientID
	}

	return nil
}

func validateEvents(events *EventsConfig, telemetryKind string) error {
	if events.QueueCapacity <= 0 {
		events.QueueCapacity = DefaultQueueCapacity
	}

	if events.TriggerInterval <= 0 {
		events.TriggerInterval = DefaultTriggerInterval
	}

	if events.GroupSyncInterval <= 0 {
		events.GroupSyncInterval = DefaultGroupSyncInterval
	}

	if events.Topic != "" && telemetryKind != TelemetryMQTT {
		return errEventsNeedMQTT
	}

	return nil
}

func validateLogLevels(settings *Config) error {
	if _, ok := logger.ParseLogLevel(settings.LogLevel); !ok {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, settings.LogLevel)
	}

	for component, level := range settings.LogLevels {
		if _, ok := logger.ParseLogLevel(level); !ok {
			return fmt.Errorf("%w for %s: %q", errUnknownLogLevel, component, level)
		}
	}

	return nil
}
