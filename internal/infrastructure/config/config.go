package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// clientIDPrefix is used to build a client id when none is configured.
const clientIDPrefix = "lampdirector-"

// Config is the root configuration structure for lampdirector.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Device   DeviceConfig   `yaml:"device"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Policy   PolicyConfig   `yaml:"policy"`
	Logging  LoggingConfig  `yaml:"logging"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Database DatabaseConfig `yaml:"database"`
	API      APIConfig      `yaml:"api"`
}

// DeviceConfig identifies the controlled device and its sub-devices.
type DeviceConfig struct {
	ID        string          `yaml:"id"`
	Selectors SelectorsConfig `yaml:"selectors"`
}

// SelectorsConfig maps sensor and actuator roles to sub-device ids.
type SelectorsConfig struct {
	Motion      int `yaml:"motion"`
	LED         int `yaml:"led"`
	Illuminance int `yaml:"illuminance"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
// Delays are in seconds. MaxAttempts bounds the initial connection; 0 means
// keep trying until shutdown.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// PolicyConfig contains the lamp actuation policy.
type PolicyConfig struct {
	// MotionWindow is how long a motion update counts as recent, in seconds.
	MotionWindow int `yaml:"motion_window"`

	// TickInterval is the periodic re-evaluation interval, in seconds.
	TickInterval int `yaml:"tick_interval"`

	// DarkThreshold is the illuminance below which the room counts as dark.
	DarkThreshold float64 `yaml:"dark_threshold"`

	// Brightness is the colour sent when turning the lamp on.
	Brightness BrightnessConfig `yaml:"brightness"`

	// SuppressRepeats skips re-sending a command identical to the last one.
	SuppressRepeats bool `yaml:"suppress_repeats"`
}

// BrightnessConfig holds per-channel levels, 0-255.
type BrightnessConfig struct {
	R int `yaml:"r"`
	G int `yaml:"g"`
	B int `yaml:"b"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`

	// QueueSize bounds the points waiting to be handed to the writer.
	QueueSize int `yaml:"queue_size"`
}

// DatabaseConfig contains SQLite settings for the actuation log.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`

	// RetentionDays is how long actuation log entries are kept. 0 keeps everything.
	RetentionDays int `yaml:"retention_days"`
}

// APIConfig contains HTTP status API settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// Load reads configuration and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values, when path is not empty
//  3. Environment variables (override file values)
//
// MQTT_HOST, MQTT_PORT and DALEQ_DEVICE are honoured as-is so existing
// deployments keep working. Everything else follows LAMPDIRECTOR_SECTION_KEY.
//
// Parameters:
//   - path: Path to the YAML configuration file, or "" for defaults and environment only
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	if cfg.MQTT.Broker.ClientID == "" {
		cfg.MQTT.Broker.ClientID = generateClientID()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
// Broker host and device id have no default and must be supplied.
func defaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			Selectors: SelectorsConfig{
				Motion:      5,
				LED:         6,
				Illuminance: 8,
			},
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Port: 1883,
			},
			QoS: 0,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Policy: PolicyConfig{
			MotionWindow:  60,
			TickInterval:  1,
			DarkThreshold: 200,
			Brightness:    BrightnessConfig{R: 128, G: 128, B: 128},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
			QueueSize:     1024,
		},
		Database: DatabaseConfig{
			Path:          "./data/lampdirector.db",
			WALMode:       true,
			BusyTimeout:   5,
			RetentionDays: 30,
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  10,
				Write: 10,
				Idle:  60,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) error {
	// Deployment variables
	if v := os.Getenv("MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("MQTT_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MQTT_PORT %q is not a number", v)
		}
		cfg.MQTT.Broker.Port = port
	}
	if v := os.Getenv("DALEQ_DEVICE"); v != "" {
		cfg.Device.ID = v
	}

	// MQTT
	if v := os.Getenv("LAMPDIRECTOR_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("LAMPDIRECTOR_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("LAMPDIRECTOR_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Database
	if v := os.Getenv("LAMPDIRECTOR_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Logging
	if v := os.Getenv("LAMPDIRECTOR_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	return nil
}

// generateClientID returns a unique broker client id.
func generateClientID() string {
	return clientIDPrefix + uuid.NewString()[:8]
}

// Validate checks the configuration for errors.
//
// Every problem is collected so a single run reports them all.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Device validation
	if c.Device.ID == "" {
		errs = append(errs, "device.id is required (set DALEQ_DEVICE environment variable)")
	}
	for name, sel := range map[string]int{
		"motion":      c.Device.Selectors.Motion,
		"led":         c.Device.Selectors.LED,
		"illuminance": c.Device.Selectors.Illuminance,
	} {
		if sel <= 0 {
			errs = append(errs, fmt.Sprintf("device.selectors.%s must be positive", name))
		}
	}

	// MQTT validation
	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required (set MQTT_HOST environment variable)")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Reconnect.MaxAttempts < 0 {
		errs = append(errs, "mqtt.reconnect.max_attempts must not be negative")
	}

	// Policy validation
	if c.Policy.MotionWindow <= 0 {
		errs = append(errs, "policy.motion_window must be positive")
	}
	if c.Policy.TickInterval <= 0 {
		errs = append(errs, "policy.tick_interval must be positive")
	}
	if c.Policy.DarkThreshold < 0 {
		errs = append(errs, "policy.dark_threshold must not be negative")
	}
	for name, level := range map[string]int{
		"r": c.Policy.Brightness.R,
		"g": c.Policy.Brightness.G,
		"b": c.Policy.Brightness.B,
	} {
		if level < 0 || level > 255 {
			errs = append(errs, fmt.Sprintf("policy.brightness.%s must be between 0 and 255", name))
		}
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Org == "" {
			errs = append(errs, "influxdb.org is required when influxdb is enabled")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when influxdb is enabled")
		}
	}

	// Database validation
	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when database is enabled")
	}
	if c.Database.RetentionDays < 0 {
		errs = append(errs, "database.retention_days must not be negative")
	}

	// API validation
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		// Map iteration order is random; keep the report stable.
		slices.Sort(errs)
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetMotionWindow returns the motion window as a Duration.
func (c *Config) GetMotionWindow() time.Duration {
	return time.Duration(c.Policy.MotionWindow) * time.Second
}

// GetTickInterval returns the evaluation tick interval as a Duration.
func (c *Config) GetTickInterval() time.Duration {
	return time.Duration(c.Policy.TickInterval) * time.Second
}

// GetRetention returns the actuation log retention as a Duration.
func (c *Config) GetRetention() time.Duration {
	return time.Duration(c.Database.RetentionDays) * 24 * time.Hour
}

// ReadTimeout returns the API read timeout as a Duration.
func (a APIConfig) ReadTimeout() time.Duration {
	return time.Duration(a.Timeouts.Read) * time.Second
}

// WriteTimeout returns the API write timeout as a Duration.
func (a APIConfig) WriteTimeout() time.Duration {
	return time.Duration(a.Timeouts.Write) * time.Second
}

// IdleTimeout returns the API idle timeout as a Duration.
func (a APIConfig) IdleTimeout() time.Duration {
	return time.Duration(a.Timeouts.Idle) * time.Second
}
