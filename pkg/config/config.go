package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Connection ConnectionConfig `yaml:"connection"`
	Supply     SupplyConfig     `yaml:"supply"`
	Polling    PollingConfig    `yaml:"polling"`
	Mock       MockConfig       `yaml:"mock"`
}

// ConnectionConfig describes how to reach the instrument.
type ConnectionConfig struct {
	Resource    string        `yaml:"resource"`     // VISA resource string, e.g. GPIB0::5::INSTR
	AdapterPort string        `yaml:"adapter_port"` // Serial port of the GPIB adapter (GPIB resources only)
	Timeout     time.Duration `yaml:"timeout"`      // Bus response timeout
}

// SupplyConfig describes the power supply and the limits the UI enforces.
type SupplyConfig struct {
	Channels   int     `yaml:"channels"`
	MaxVoltage float64 `yaml:"max_voltage"` // Upper bound for voltage entry (V)
	MaxCurrent float64 `yaml:"max_current"` // Upper bound for current-limit entry (A)
}

// PollingConfig contains GUI polling parameters.
type PollingConfig struct {
	Period time.Duration `yaml:"period"` // Time between reading updates per channel
	Window time.Duration `yaml:"window"` // History retained for the trend display
}

// MockConfig contains simulated instrument configuration.
type MockConfig struct {
	Identity   string  `yaml:"identity"`    // *IDN? response
	Channels   int     `yaml:"channels"`    // Number of simulated channels
	NoiseLevel float64 `yaml:"noise_level"` // Measurement noise amplitude (V)
	LoadOhms   float64 `yaml:"load_ohms"`   // Simulated load resistance (0 = open circuit)
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Connection: ConnectionConfig{
			Resource:    "GPIB0::5::INSTR",
			AdapterPort: "/dev/ttyUSB0", // COM port on Windows, e.g. COM3
			Timeout:     5 * time.Second,
		},
		Supply: SupplyConfig{
			Channels:   4,
			MaxVoltage: 100,
			MaxCurrent: 10,
		},
		Polling: PollingConfig{
			Period: time.Second,
			Window: time.Minute,
		},
		Mock: MockConfig{
			Identity:   "gopsu,SIM4,0,1.0",
			Channels:   4,
			NoiseLevel: 0.001,
			LoadOhms:   8.0,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Connection.Resource == "" {
		c.Connection.Resource = def.Connection.Resource
	}
	if c.Connection.AdapterPort == "" {
		c.Connection.AdapterPort = def.Connection.AdapterPort
	}
	if c.Connection.Timeout == 0 {
		c.Connection.Timeout = def.Connection.Timeout
	}

	if c.Supply.Channels == 0 {
		c.Supply.Channels = def.Supply.Channels
	}
	if c.Supply.MaxVoltage == 0 {
		c.Supply.MaxVoltage = def.Supply.MaxVoltage
	}
	if c.Supply.MaxCurrent == 0 {
		c.Supply.MaxCurrent = def.Supply.MaxCurrent
	}

	if c.Polling.Period == 0 {
		c.Polling.Period = def.Polling.Period
	}
	if c.Polling.Window == 0 {
		c.Polling.Window = def.Polling.Window
	}

	if c.Mock.Identity == "" {
		c.Mock.Identity = def.Mock.Identity
	}
	if c.Mock.Channels == 0 {
		c.Mock.Channels = def.Mock.Channels
	}
}
