package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for glyphd.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Hardware   HardwareConfig   `yaml:"hardware"`
	Session    SessionConfig    `yaml:"session"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	API        APIConfig        `yaml:"api"`
	History    HistoryConfig    `yaml:"history"`
	Features   FeaturesConfig   `yaml:"features"`
	QuietHours QuietHoursConfig `yaml:"quiet_hours"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// HardwareConfig describes how to reach the glyph LED control service.
type HardwareConfig struct {
	// SocketPath is the Unix socket the LED control service listens on.
	SocketPath string `yaml:"socket_path"`

	// DeviceModel overrides model detection. Leave empty to use the
	// model reported by the platform (ro.product.name equivalent).
	DeviceModel string `yaml:"device_model"`

	// DialTimeout is the per-attempt socket dial timeout in milliseconds.
	DialTimeout int `yaml:"dial_timeout"`
}

// SessionConfig tunes hardware session lifecycle behaviour.
type SessionConfig struct {
	// ReconnectDelay is the pause before a recovery attempt, in milliseconds.
	ReconnectDelay int `yaml:"reconnect_delay"`

	// EnsureTimeout bounds how long a forced session check waits for a
	// binding to come up, in milliseconds.
	EnsureTimeout int `yaml:"ensure_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
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
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// APIConfig contains HTTP API server settings.
//
// The API binds to loopback by default; it is a local control surface,
// not an internet-facing one.
type APIConfig struct {
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

// HistoryConfig contains settings for the SQLite run/session history store.
type HistoryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// FeaturesConfig holds per-feature settings.
type FeaturesConfig struct {
	// BreathingPattern selects the breathing exercise: "4-7-8" (default)
	// or "box".
	BreathingPattern string `yaml:"breathing_pattern"`

	UnlockShow    FeatureConfig    `yaml:"unlock_show"`
	ShakePeek     FeatureConfig    `yaml:"shake_peek"`
	GuardAlarm    FeatureConfig    `yaml:"guard_alarm"`
	ChargingStory FeatureConfig    `yaml:"charging_story"`
	ManualDemo    FeatureConfig    `yaml:"manual_demo"`
	LowBattery    LowBatteryConfig `yaml:"low_battery"`
}

// FeatureConfig describes one glyph feature.
type FeatureConfig struct {
	Enabled bool `yaml:"enabled"`

	// Animation is the identifier to run when the feature fires.
	// Empty means the feature's built-in default.
	Animation string `yaml:"animation"`

	// Duration applies to duration-driven animations, in milliseconds.
	Duration int `yaml:"duration"`
}

// LowBatteryConfig extends FeatureConfig with the trigger threshold.
type LowBatteryConfig struct {
	FeatureConfig `yaml:",inline"`

	// ThresholdPercent is the battery level at or below which the
	// low-battery alert fires.
	ThresholdPercent int `yaml:"threshold_percent"`
}

// QuietHoursConfig suppresses alert-class animations during a daily window.
type QuietHoursConfig struct {
	Enabled bool `yaml:"enabled"`

	// Start and End are wall-clock times in "HH:MM" form. A window that
	// crosses midnight (start > end) is supported.
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GLYPHD_SECTION_KEY
// For example: GLYPHD_HARDWARE_SOCKET, GLYPHD_MQTT_HOST
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Hardware: HardwareConfig{
			SocketPath:  "/run/glyphd/led.sock",
			DialTimeout: 1000,
		},
		Session: SessionConfig{
			ReconnectDelay: 1500,
			EnsureTimeout:  2000,
		},
		MQTT: MQTTConfig{
			Enabled: false,
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "glyphd",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 9178,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		History: HistoryConfig{
			Enabled:     false,
			Path:        "./data/glyphd.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Features: FeaturesConfig{
			BreathingPattern: "4-7-8",
			UnlockShow:       FeatureConfig{Enabled: true, Animation: "C1"},
			ShakePeek:        FeatureConfig{Enabled: true},
			GuardAlarm:       FeatureConfig{Enabled: false, Animation: "PULSE", Duration: 5000},
			ChargingStory:    FeatureConfig{Enabled: true},
			ManualDemo:       FeatureConfig{Enabled: true, Duration: 3000},
			LowBattery: LowBatteryConfig{
				FeatureConfig:    FeatureConfig{Enabled: true, Animation: "PULSE", Duration: 2000},
				ThresholdPercent: 20,
			},
		},
		QuietHours: QuietHoursConfig{
			Enabled: false,
			Start:   "22:00",
			End:     "07:00",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GLYPHD_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GLYPHD_HARDWARE_SOCKET"); v != "" {
		cfg.Hardware.SocketPath = v
	}
	if v := os.Getenv("GLYPHD_HARDWARE_MODEL"); v != "" {
		cfg.Hardware.DeviceModel = v
	}

	if v := os.Getenv("GLYPHD_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GLYPHD_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GLYPHD_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	if v := os.Getenv("GLYPHD_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	if v := os.Getenv("GLYPHD_HISTORY_PATH"); v != "" {
		cfg.History.Path = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Hardware.SocketPath == "" {
		errs = append(errs, "hardware.socket_path is required")
	}
	if c.Hardware.DialTimeout < 0 {
		errs = append(errs, "hardware.dial_timeout must not be negative")
	}

	if c.Session.ReconnectDelay < 0 {
		errs = append(errs, "session.reconnect_delay must not be negative")
	}
	if c.Session.EnsureTimeout < 0 {
		errs = append(errs, "session.ensure_timeout must not be negative")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.History.Enabled && c.History.Path == "" {
		errs = append(errs, "history.path is required when history is enabled")
	}

	if t := c.Features.LowBattery.ThresholdPercent; t < 0 || t > 100 {
		errs = append(errs, "features.low_battery.threshold_percent must be between 0 and 100")
	}

	for _, fc := range []struct {
		name string
		cfg  FeatureConfig
	}{
		{"unlock_show", c.Features.UnlockShow},
		{"shake_peek", c.Features.ShakePeek},
		{"guard_alarm", c.Features.GuardAlarm},
		{"charging_story", c.Features.ChargingStory},
		{"manual_demo", c.Features.ManualDemo},
		{"low_battery", c.Features.LowBattery.FeatureConfig},
	} {
		if fc.cfg.Duration < 0 {
			errs = append(errs, fmt.Sprintf("features.%s.duration must not be negative", fc.name))
		}
	}

	if c.QuietHours.Enabled {
		if _, err := time.Parse("15:04", c.QuietHours.Start); err != nil {
			errs = append(errs, "quiet_hours.start must be in HH:MM form")
		}
		if _, err := time.Parse("15:04", c.QuietHours.End); err != nil {
			errs = append(errs, "quiet_hours.end must be in HH:MM form")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetDialTimeout returns the hardware dial timeout as a Duration.
func (c *Config) GetDialTimeout() time.Duration {
	return time.Duration(c.Hardware.DialTimeout) * time.Millisecond
}

// GetReconnectDelay returns the session reconnect delay as a Duration.
func (c *Config) GetReconnectDelay() time.Duration {
	return time.Duration(c.Session.ReconnectDelay) * time.Millisecond
}

// GetEnsureTimeout returns the session ensure timeout as a Duration.
func (c *Config) GetEnsureTimeout() time.Duration {
	return time.Duration(c.Session.EnsureTimeout) * time.Millisecond
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetDuration returns the feature's animation duration as a Duration.
func (f FeatureConfig) GetDuration() time.Duration {
	return time.Duration(f.Duration) * time.Millisecond
}
