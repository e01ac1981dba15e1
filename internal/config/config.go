package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the copysaver configuration
type Config struct {
	// MaxItems is the history ceiling: captures that would exceed it
	// are rejected with a notification.
	MaxItems int `yaml:"max_items"`

	// HistoryLocation overrides the database path. Empty means the
	// default ~/.config/copysaver/copysaver.db.
	HistoryLocation string `yaml:"history_location,omitempty"`

	// DefaultHostname is the hostname recorded for captures with no
	// page context, e.g. from the clipboard watcher.
	DefaultHostname string `yaml:"default_hostname"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		MaxItems:        100,
		DefaultHostname: "localhost",
	}
}

// ConfigManager manages configuration persistence
type ConfigManager struct {
	configPath string
}

// NewConfigManager creates a new configuration manager
func NewConfigManager() (*ConfigManager, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", "copysaver")
	configPath := filepath.Join(configDir, "config.yaml")

	return &ConfigManager{
		configPath: configPath,
	}, nil
}

// NewConfigManagerWithPath creates a config manager with custom config path
func NewConfigManagerWithPath(configPath string) *ConfigManager {
	return &ConfigManager{
		configPath: configPath,
	}
}

// Load reads the configuration from file, or returns default if file doesn't exist
func (cm *ConfigManager) Load() (*Config, error) {
	if _, err := os.Stat(cm.configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(cm.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cm.validateAndSetDefaults(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Save writes the configuration to file
func (cm *ConfigManager) Save(config *Config) error {
	if err := cm.validateAndSetDefaults(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	configDir := filepath.Dir(cm.configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(cm.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// validateAndSetDefaults validates configuration and sets defaults for missing fields
func (cm *ConfigManager) validateAndSetDefaults(config *Config) error {
	if config.MaxItems <= 0 {
		return fmt.Errorf("max_items must be greater than 0")
	}

	if config.MaxItems > 10000 {
		return fmt.Errorf("max_items cannot exceed 10000 items")
	}

	if config.DefaultHostname == "" {
		config.DefaultHostname = "localhost"
	}

	return nil
}

// GetConfigPath returns the path to the config file
func (cm *ConfigManager) GetConfigPath() string {
	return cm.configPath
}

// Update modifies a specific configuration value
func (cm *ConfigManager) Update(key, value string) error {
	config, err := cm.Load()
	if err != nil {
		return err
	}

	switch key {
	case "max-items":
		var maxItems int
		if _, err := fmt.Sscanf(value, "%d", &maxItems); err != nil {
			return fmt.Errorf("invalid integer value for max-items: %s", value)
		}
		config.MaxItems = maxItems
	case "history-location":
		config.HistoryLocation = value
	case "default-hostname":
		config.DefaultHostname = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}

	return cm.Save(config)
}

// Get returns the value for a specific configuration key
func (cm *ConfigManager) Get(key string) (string, error) {
	config, err := cm.Load()
	if err != nil {
		return "", err
	}

	switch key {
	case "max-items":
		return fmt.Sprintf("%d", config.MaxItems), nil
	case "history-location":
		if config.HistoryLocation == "" {
			return "[default]", nil
		}
		return config.HistoryLocation, nil
	case "default-hostname":
		return config.DefaultHostname, nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// List returns all configuration keys and values
func (cm *ConfigManager) List() (map[string]string, error) {
	config, err := cm.Load()
	if err != nil {
		return nil, err
	}

	result := map[string]string{
		"max-items":        fmt.Sprintf("%d", config.MaxItems),
		"history-location": config.HistoryLocation,
		"default-hostname": config.DefaultHostname,
	}

	if result["history-location"] == "" {
		result["history-location"] = "[default]"
	}

	return result, nil
}
