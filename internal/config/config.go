package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"

	"github.com/chaz8081/findme-target/internal/ble"
	"github.com/chaz8081/findme-target/internal/logging"
	"github.com/chaz8081/findme-target/internal/pwm"
)

// Config holds all application configuration.
type Config struct {
	Device      DeviceConfig      `yaml:"device"`
	Advertising AdvertisingConfig `yaml:"advertising"`
	Indicators  IndicatorsConfig  `yaml:"indicators"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	LogLevel    string            `yaml:"log_level"`
	LogFormat   string            `yaml:"log_format"` // "text" or "json"
}

// DeviceConfig holds the advertised identity.
type DeviceConfig struct {
	Name string `yaml:"name"`
	// Address is the public address to program, e.g. "00:A0:50:12:34:56".
	// Empty keeps the controller's own address.
	Address string `yaml:"address"`
}

// AdvertisingConfig holds advertising settings.
type AdvertisingConfig struct {
	Interval time.Duration `yaml:"interval"`
	// Timeout ends an advertising cycle; 0 advertises until connected.
	Timeout time.Duration `yaml:"timeout"`
}

// IndicatorsConfig holds the two LED channels.
type IndicatorsConfig struct {
	Status ChannelConfig `yaml:"status"`
	Alert  ChannelConfig `yaml:"alert"`
}

// ChannelConfig describes one pulse-output channel.
type ChannelConfig struct {
	Driver    string `yaml:"driver"` // "gpio" or "log"
	Pin       string `yaml:"pin"`    // empty disables the indicator
	Frequency string `yaml:"frequency"`
	Inverted  bool   `yaml:"inverted"`
	Alignment string `yaml:"alignment"`
}

// TelemetryConfig holds the MQTT publisher settings.
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`
	Port        int    `yaml:"port"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "findme-target")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Default returns a Config with sensible default values. Both LEDs are
// wired active low and start on the log driver until a pin is configured.
func Default() *Config {
	led := ChannelConfig{
		Driver:    pwm.DriverLog,
		Frequency: "1Hz",
		Inverted:  true,
		Alignment: "right",
	}
	status, alert := led, led
	status.Pin = "status"
	alert.Pin = "alert"

	return &Config{
		Device: DeviceConfig{
			Name: "Find Me Target",
		},
		Advertising: AdvertisingConfig{
			Interval: 30 * time.Millisecond,
		},
		Indicators: IndicatorsConfig{
			Status: status,
			Alert:  alert,
		},
		Telemetry: TelemetryConfig{
			Broker:      "localhost",
			Port:        1883,
			ClientID:    "findme-target",
			TopicPrefix: "findme",
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(expandTilde(path))
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.Device.Name == "" {
		return fmt.Errorf("device.name must not be empty")
	}
	if _, err := c.Address(); err != nil {
		return fmt.Errorf("device.address: %w", err)
	}

	if c.Advertising.Interval < 0 {
		return fmt.Errorf("advertising.interval must be >= 0, got %s", c.Advertising.Interval)
	}
	if c.Advertising.Timeout < 0 {
		return fmt.Errorf("advertising.timeout must be >= 0, got %s", c.Advertising.Timeout)
	}

	if err := c.Indicators.Status.validate(); err != nil {
		return fmt.Errorf("indicators.status.%w", err)
	}
	if err := c.Indicators.Alert.validate(); err != nil {
		return fmt.Errorf("indicators.alert.%w", err)
	}

	if c.Telemetry.Enabled {
		if c.Telemetry.Broker == "" {
			return fmt.Errorf("telemetry.broker must not be empty when telemetry is enabled")
		}
		if c.Telemetry.Port <= 0 || c.Telemetry.Port > 65535 {
			return fmt.Errorf("telemetry.port must be 1-65535, got %d", c.Telemetry.Port)
		}
		if c.Telemetry.ClientID == "" {
			return fmt.Errorf("telemetry.client_id must not be empty when telemetry is enabled")
		}
	}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil || c.LogLevel == "" {
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}
	switch c.LogFormat {
	case logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("log_format must be \"text\" or \"json\", got %q", c.LogFormat)
	}

	return nil
}

// Address returns the configured public address, or the zero address when
// none is set.
func (c *Config) Address() (ble.Address, error) {
	if c.Device.Address == "" {
		return ble.Address{}, nil
	}
	return ble.ParseAddress(c.Device.Address)
}

// Enabled reports whether the channel has a pin.
func (c ChannelConfig) Enabled() bool { return c.Pin != "" }

// PWM converts the channel settings to a pwm.Config.
func (c ChannelConfig) PWM() (pwm.Config, error) {
	var f physic.Frequency
	if err := f.Set(c.Frequency); err != nil {
		return pwm.Config{}, fmt.Errorf("frequency %q: %w", c.Frequency, err)
	}
	if f <= 0 {
		return pwm.Config{}, fmt.Errorf("frequency must be > 0, got %s", f)
	}
	align, err := pwm.ParseAlignment(c.Alignment)
	if err != nil {
		return pwm.Config{}, err
	}
	return pwm.Config{Frequency: f, Inverted: c.Inverted, Alignment: align}, nil
}

func (c ChannelConfig) validate() error {
	switch c.Driver {
	case pwm.DriverGPIO, pwm.DriverLog:
	default:
		return fmt.Errorf("driver must be \"gpio\" or \"log\", got %q", c.Driver)
	}
	if !c.Enabled() {
		return nil
	}
	if _, err := c.PWM(); err != nil {
		return fmt.Errorf("pwm: %w", err)
	}
	return nil
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
