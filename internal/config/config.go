package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

// Config is the complete engine configuration.
type Config struct {
	Sync     SyncConfig     `yaml:"sync"`
	Clock    ClockConfig    `yaml:"clock"`
	Phy      PhyConfig      `yaml:"phy"`
	Deferred DeferredConfig `yaml:"deferred"`
	Audit    AuditConfig    `yaml:"audit"`
}

// SyncConfig sizes the synchronization context pool and the receive
// notification pools.
type SyncConfig struct {
	MaxContexts int `yaml:"maxContexts"`
	RxNodes     int `yaml:"rxNodes"`
	RxLinks     int `yaml:"rxLinks"`
}

// ClockConfig declares the local sleep clock accuracy.
type ClockConfig struct {
	LocalPPM uint32 `yaml:"localPpm"`
}

// PhyConfig selects optional PHY support.
type PhyConfig struct {
	CodedSupported bool `yaml:"codedSupported"`
}

// DeferredConfig sizes the cross-domain deferred call queues.
type DeferredConfig struct {
	QueueDepth int `yaml:"queueDepth"`
}

// AuditConfig controls the audit log location and rotation.
type AuditConfig struct {
	Dir        string `yaml:"dir"`
	MaxSizeMB  int    `yaml:"maxSizeMb"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	Compress   bool   `yaml:"compress"`
}

// Default returns the built-in baseline configuration.
func Default() *Config {
	return &Config{
		Sync: SyncConfig{
			MaxContexts: 4,
			// Each context pre-allocates an establishment and a
			// terminal node with their queue links.
			RxNodes: 8,
			RxLinks: 8,
		},
		Clock: ClockConfig{
			LocalPPM: 50,
		},
		Phy: PhyConfig{
			CodedSupported: true,
		},
		Deferred: DeferredConfig{
			QueueDepth: 8,
		},
		Audit: AuditConfig{
			Dir:        "logs",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file
// named by LLSYNC_CONFIG and environment overrides, then validates it.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("LLSYNC_CONFIG"); path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LLSYNC_MAX_CONTEXTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sync.MaxContexts = n
		}
	}
	if v := os.Getenv("LLSYNC_LOCAL_PPM"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.Clock.LocalPPM = uint32(n)
		}
	}
	if v := os.Getenv("LLSYNC_AUDIT_DIR"); v != "" {
		cfg.Audit.Dir = v
	}
}

// Validate checks the configuration against its operating bounds.
func (c *Config) Validate() error {
	if c.Sync.MaxContexts < 1 || c.Sync.MaxContexts > 64 {
		return fmt.Errorf("maxContexts %d outside range [1, 64]", c.Sync.MaxContexts)
	}
	if c.Sync.RxNodes < 2*c.Sync.MaxContexts {
		return fmt.Errorf("rxNodes %d cannot cover %d contexts (two nodes each)",
			c.Sync.RxNodes, c.Sync.MaxContexts)
	}
	if c.Sync.RxLinks < 2*c.Sync.MaxContexts {
		return fmt.Errorf("rxLinks %d cannot cover %d contexts (two links each)",
			c.Sync.RxLinks, c.Sync.MaxContexts)
	}
	if c.Clock.LocalPPM == 0 || c.Clock.LocalPPM > 500 {
		return fmt.Errorf("localPpm %d outside range [1, 500]", c.Clock.LocalPPM)
	}
	if c.Deferred.QueueDepth < 1 || c.Deferred.QueueDepth > 64 {
		return fmt.Errorf("queueDepth %d outside range [1, 64]", c.Deferred.QueueDepth)
	}
	if c.Audit.MaxSizeMB < 1 {
		return fmt.Errorf("audit maxSizeMb %d must be positive", c.Audit.MaxSizeMB)
	}
	return nil
}
