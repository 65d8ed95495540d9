package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/PixPMusic/midit/internal/transform"
)

const (
	DefaultOutputLockTimeoutSeconds = 60
	DefaultSnapshotIntervalMS       = 1000
	DefaultLogLevel                 = "info"
)

// DeviceConfig holds configuration for a single MIDI device
type DeviceConfig struct {
	ID      string `json:"id"`       // Unique identifier
	Name    string `json:"name"`     // User-friendly name
	InPort  string `json:"in_port"`  // MIDI input port name
	OutPort string `json:"out_port"` // MIDI output port name
}

// NewDeviceConfig creates a new device config with a generated ID
func NewDeviceConfig() DeviceConfig {
	return DeviceConfig{
		ID:   uuid.New().String(),
		Name: "New Device",
	}
}

// Config holds application configuration
type Config struct {
	Devices        []DeviceConfig `json:"devices"`
	OutputDeviceID string         `json:"output_device_id"`

	// SafeMode makes note lists drop duplicate and out-of-range notes
	SafeMode bool `json:"safe_mode"`

	OutputLockTimeoutSeconds int    `json:"output_lock_timeout_seconds"`
	SnapshotIntervalMS       int    `json:"snapshot_interval_ms"`
	LogLevel                 string `json:"log_level"`

	// Transforms run on every captured phrase before it is played back
	Transforms []transform.Transform `json:"transforms"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		Devices:                  []DeviceConfig{},
		OutputLockTimeoutSeconds: DefaultOutputLockTimeoutSeconds,
		SnapshotIntervalMS:       DefaultSnapshotIntervalMS,
		LogLevel:                 DefaultLogLevel,
	}
}

// configDir returns the platform-appropriate config directory
func configDir() (string, error) {
	configHome, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configHome, "midit"), nil
}

// ConfigPath returns the full path to the config file
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from the default path, returning defaults if not found
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(configPath)
}

// LoadFile reads the config at path, returning defaults if not found
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Ensure slices are not nil
	if cfg.Devices == nil {
		cfg.Devices = []DeviceConfig{}
	}
	if cfg.OutputLockTimeoutSeconds <= 0 {
		cfg.OutputLockTimeoutSeconds = DefaultOutputLockTimeoutSeconds
	}
	if cfg.SnapshotIntervalMS <= 0 {
		cfg.SnapshotIntervalMS = DefaultSnapshotIntervalMS
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	return cfg, nil
}

// Save writes the config to the default path
func (c *Config) Save() error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(configPath)
}

// SaveFile writes the config to path
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// AddDevice adds a new device to the config
func (c *Config) AddDevice(device DeviceConfig) {
	c.Devices = append(c.Devices, device)
}

// RemoveDevice removes a device by ID
func (c *Config) RemoveDevice(id string) {
	for i, d := range c.Devices {
		if d.ID == id {
			c.Devices = append(c.Devices[:i], c.Devices[i+1:]...)
			if c.OutputDeviceID == id {
				c.OutputDeviceID = ""
			}
			return
		}
	}
}

// UpdateDevice updates an existing device by ID
func (c *Config) UpdateDevice(device DeviceConfig) {
	for i, d := range c.Devices {
		if d.ID == device.ID {
			c.Devices[i] = device
			return
		}
	}
}

// GetDevice returns a device by ID, or nil if not found
func (c *Config) GetDevice(id string) *DeviceConfig {
	for i := range c.Devices {
		if c.Devices[i].ID == id {
			return &c.Devices[i]
		}
	}
	return nil
}

// InputPorts returns the distinct input port names of all devices
func (c *Config) InputPorts() []string {
	var names []string
	for _, d := range c.Devices {
		if d.InPort != "" && !slices.Contains(names, d.InPort) {
			names = append(names, d.InPort)
		}
	}
	return names
}

// OutputPort returns the output port of the selected device, falling back
// to the first device that has one
func (c *Config) OutputPort() string {
	if d := c.GetDevice(c.OutputDeviceID); d != nil && d.OutPort != "" {
		return d.OutPort
	}
	for _, d := range c.Devices {
		if d.OutPort != "" {
			return d.OutPort
		}
	}
	return ""
}

// OutputLockTimeout is how long switching the output port waits for playback
func (c *Config) OutputLockTimeout() time.Duration {
	return time.Duration(c.OutputLockTimeoutSeconds) * time.Second
}

// SnapshotInterval is how often the live loop checks for captured input
func (c *Config) SnapshotInterval() time.Duration {
	return time.Duration(c.SnapshotIntervalMS) * time.Millisecond
}

// Level parses the configured log level
func (c *Config) Level() (logrus.Level, error) {
	return logrus.ParseLevel(c.LogLevel)
}
