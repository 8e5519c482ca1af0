// Package hostcfg persists host-level defaults for pxlxc. Configuration is
// stored at ~/.config/pxlxc/config.yaml and seeds spec fields the operator
// does not supply per run.
package hostcfg

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Version is the current config schema version.
const Version = "1.0"

// Config holds host-level defaults.
type Config struct {
	Version string `yaml:"version"`

	// Storage is the default rootfs storage pool.
	Storage string `yaml:"storage"`

	// TemplateStorage is the default storage holding container templates.
	TemplateStorage string `yaml:"template_storage"`

	// Bridge is the default network bridge.
	Bridge string `yaml:"bridge"`

	// OSVersion is the default container OS, e.g. "debian-12".
	OSVersion string `yaml:"os_version"`

	// DestroyOnFailure tears down half-configured containers by default.
	DestroyOnFailure bool `yaml:"destroy_on_failure"`
}

// NewConfig creates a Config with Proxmox's stock defaults.
func NewConfig() *Config {
	return &Config{
		Version:         Version,
		Storage:         "local-lvm",
		TemplateStorage: "local",
		Bridge:          "vmbr0",
		OSVersion:       "debian-12",
	}
}

// DefaultPath returns the config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "pxlxc", "config.yaml"), nil
}

// Load reads the config from path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := NewConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Version == "" {
		cfg.Version = Version
	}
	return cfg, nil
}

// Save writes the config to path, creating parent directories as needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
