package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
rooms_file: "/etc/watermon/rooms.yaml"
timezone: "Europe/Berlin"
server:
  host: "0.0.0.0"
  port: 8501
influx:
  host: "influx.local"
  port: 8086
  database: "water-monitoring"
journal:
  enabled: false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.RoomsFile != "/etc/watermon/rooms.yaml" {
		t.Errorf("RoomsFile = %q, want %q", cfg.RoomsFile, "/etc/watermon/rooms.yaml")
	}
	if cfg.Influx.Host != "influx.local" {
		t.Errorf("Influx.Host = %q, want %q", cfg.Influx.Host, "influx.local")
	}
	if cfg.Influx.Measurement != "water_meters" {
		t.Errorf("Influx.Measurement = %q, want default %q", cfg.Influx.Measurement, "water_meters")
	}
	if cfg.Journal.Enabled {
		t.Error("Journal.Enabled = true, want false")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "invalid: [yaml: content")
	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_InvalidTimezone(t *testing.T) {
	path := writeConfig(t, `
timezone: "Mars/Olympus_Mons"
`)
	if _, err := Load(path); err == nil {
		t.Error("Load() expected validation error for bogus timezone, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config { return defaultConfig() }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(*Config) {}, false},
		{"missing rooms file", func(c *Config) { c.RoomsFile = "" }, true},
		{"bad server port", func(c *Config) { c.Server.Port = 0 }, true},
		{"missing influx host", func(c *Config) { c.Influx.Host = "" }, true},
		{"bad influx port", func(c *Config) { c.Influx.Port = 70000 }, true},
		{"missing influx database", func(c *Config) { c.Influx.Database = "" }, true},
		{"missing measurement", func(c *Config) { c.Influx.Measurement = "" }, true},
		{"journal enabled without path", func(c *Config) { c.Journal.Path = "" }, true},
		{"journal disabled without path", func(c *Config) { c.Journal.Enabled = false; c.Journal.Path = "" }, false},
		{"mqtt enabled without host", func(c *Config) { c.MQTT.Enabled = true; c.MQTT.Broker.Host = "" }, true},
		{"mqtt bad qos", func(c *Config) { c.MQTT.Enabled = true; c.MQTT.QoS = 3 }, true},
		{"mqtt disabled ignores qos", func(c *Config) { c.MQTT.QoS = 3 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("INFLUX_IP", "10.0.0.5")
	t.Setenv("INFLUX_PORT", "18086")
	t.Setenv("INFLUX_USER", "meters")
	t.Setenv("INFLUX_PASSWD", "secret")
	t.Setenv("DB_NAME", "household")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("DEBUG", "true")

	if err := applyEnvOverrides(cfg); err != nil {
		t.Fatalf("applyEnvOverrides() error = %v", err)
	}

	if cfg.Influx.Host != "10.0.0.5" {
		t.Errorf("Influx.Host = %q, want %q", cfg.Influx.Host, "10.0.0.5")
	}
	if cfg.Influx.Port != 18086 {
		t.Errorf("Influx.Port = %d, want 18086", cfg.Influx.Port)
	}
	if cfg.Influx.Username != "meters" {
		t.Errorf("Influx.Username = %q, want %q", cfg.Influx.Username, "meters")
	}
	if cfg.Influx.Password != "secret" {
		t.Errorf("Influx.Password = %q, want %q", cfg.Influx.Password, "secret")
	}
	if cfg.Influx.Database != "household" {
		t.Errorf("Influx.Database = %q, want %q", cfg.Influx.Database, "household")
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("Timezone = %q, want %q", cfg.Timezone, "UTC")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q after DEBUG=true", cfg.Logging.Level, "debug")
	}
}

func TestApplyEnvOverrides_Unset(t *testing.T) {
	cfg := defaultConfig()
	if err := applyEnvOverrides(cfg); err != nil {
		t.Fatalf("applyEnvOverrides() error = %v", err)
	}
	if cfg.Influx.Host != "127.0.0.1" {
		t.Errorf("Influx.Host = %q, want default untouched", cfg.Influx.Host)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
}

func TestInfluxConfig_URL(t *testing.T) {
	c := InfluxConfig{Host: "influx.local", Port: 8086}
	if got := c.URL(); got != "http://influx.local:8086" {
		t.Errorf("URL() = %q", got)
	}
}

func TestServerConfig_GetTimeouts(t *testing.T) {
	cfg := ServerConfig{
		Timeouts: ServerTimeoutConfig{Read: 15, Write: 20, Idle: 60},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 15 {
		t.Errorf("GetReadTimeout() = %v, want 15", got)
	}
	if got := cfg.GetWriteTimeout().Seconds(); got != 20 {
		t.Errorf("GetWriteTimeout() = %v, want 20", got)
	}
	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
}
