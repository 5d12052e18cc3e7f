package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the watermon service.
type Config struct {
	// RoomsFile is the path to the rooms/meters document.
	RoomsFile string `yaml:"rooms_file"`

	// Timezone is the IANA zone submission timestamps are recorded in.
	Timezone string `yaml:"timezone"`

	Server  ServerConfig  `yaml:"server"`
	Influx  InfluxConfig  `yaml:"influx"`
	Journal JournalConfig `yaml:"journal"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host     string              `yaml:"host"`
	Port     int                 `yaml:"port"`
	Timeouts ServerTimeoutConfig `yaml:"timeouts"`
}

// ServerTimeoutConfig contains HTTP timeout settings in seconds.
type ServerTimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// InfluxConfig contains InfluxDB 1.x connection settings.
type InfluxConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	Database    string `yaml:"database"`
	Measurement string `yaml:"measurement"`
}

// URL returns the server base URL for the configured host/port.
func (c InfluxConfig) URL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

// JournalConfig contains settings for the SQLite submission journal.
type JournalConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains settings for the optional reading announcer.
type MQTTConfig struct {
	Enabled bool             `yaml:"enabled"`
	Broker  MQTTBrokerConfig `yaml:"broker"`
	Auth    MQTTAuthConfig   `yaml:"auth"`
	QoS     int              `yaml:"qos"`
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

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// envOverrides mirrors the environment variables the service honours.
// Zero values mean "unset"; only set variables override the file.
type envOverrides struct {
	InfluxIP     string `envconfig:"INFLUX_IP"`
	InfluxPort   int    `envconfig:"INFLUX_PORT"`
	InfluxUser   string `envconfig:"INFLUX_USER"`
	InfluxPasswd string `envconfig:"INFLUX_PASSWD"`
	DBName       string `envconfig:"DB_NAME"`
	Timezone     string `envconfig:"TIMEZONE"`
	Debug        bool   `envconfig:"DEBUG"`
}

// Load reads configuration from a YAML file and applies environment
// variable overrides.
//
// Returns an error if the file cannot be read or parsed, an environment
// variable cannot be converted, or validation fails. A failed Load is
// fatal at startup: the process must not start on a bad configuration.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with the documented defaults.
func defaultConfig() *Config {
	return &Config{
		RoomsFile: "configs/rooms.yaml",
		Timezone:  "Europe/Berlin",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8501,
			Timeouts: ServerTimeoutConfig{
				Read:  15,
				Write: 15,
				Idle:  60,
			},
		},
		Influx: InfluxConfig{
			Host:        "127.0.0.1",
			Port:        8086,
			Username:    "root",
			Password:    "root",
			Database:    "water-monitoring",
			Measurement: "water_meters",
		},
		Journal: JournalConfig{
			Enabled:     true,
			Path:        "./data/watermon.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "watermon",
			},
			QoS: 1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies the documented environment variables on top of
// the file configuration. DEBUG forces the logging level to debug.
func applyEnvOverrides(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return err
	}

	if env.InfluxIP != "" {
		cfg.Influx.Host = env.InfluxIP
	}
	if env.InfluxPort != 0 {
		cfg.Influx.Port = env.InfluxPort
	}
	if env.InfluxUser != "" {
		cfg.Influx.Username = env.InfluxUser
	}
	if env.InfluxPasswd != "" {
		cfg.Influx.Password = env.InfluxPasswd
	}
	if env.DBName != "" {
		cfg.Influx.Database = env.DBName
	}
	if env.Timezone != "" {
		cfg.Timezone = env.Timezone
	}
	if env.Debug {
		cfg.Logging.Level = "debug"
	}

	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.RoomsFile == "" {
		errs = append(errs, "rooms_file is required")
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("timezone %q is not a valid IANA zone", c.Timezone))
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	if c.Influx.Host == "" {
		errs = append(errs, "influx.host is required")
	}
	if c.Influx.Port < 1 || c.Influx.Port > 65535 {
		errs = append(errs, "influx.port must be between 1 and 65535")
	}
	if c.Influx.Database == "" {
		errs = append(errs, "influx.database is required")
	}
	if c.Influx.Measurement == "" {
		errs = append(errs, "influx.measurement is required")
	}

	if c.Journal.Enabled && c.Journal.Path == "" {
		errs = append(errs, "journal.path is required when the journal is enabled")
	}

	if c.MQTT.Enabled {
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required when MQTT is enabled")
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// Location returns the configured timezone as a *time.Location.
// Validate has already established the zone is loadable.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// GetReadTimeout returns the HTTP read timeout as a Duration.
func (c ServerConfig) GetReadTimeout() time.Duration {
	return time.Duration(c.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the HTTP write timeout as a Duration.
func (c ServerConfig) GetWriteTimeout() time.Duration {
	return time.Duration(c.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the HTTP idle timeout as a Duration.
func (c ServerConfig) GetIdleTimeout() time.Duration {
	return time.Duration(c.Timeouts.Idle) * time.Second
}
