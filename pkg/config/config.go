package config

import (
	"time"
)

// Config is the root configuration structure.
type Config struct {
	General   GeneralConfig   `yaml:"general"`
	Engine    EngineConfig    `yaml:"engine"`
	Selection SelectionConfig `yaml:"selection"`
	Watchdog  WatchdogConfig  `yaml:"watchdog"`
	Collector CollectorConfig `yaml:"collector"`
}

// GeneralConfig holds settings not tied to a single component.
type GeneralConfig struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// PresetPath overrides the default view-preset file location.
	PresetPath string `yaml:"preset_path"`

	// Theme names the color palette, builtin or loaded from ThemePath.
	Theme string `yaml:"theme"`

	// ThemePath points at a custom theme TOML file.
	ThemePath string `yaml:"theme_path"`
}

// EngineConfig tunes the query pipeline.
type EngineConfig struct {
	// PageSize is the initial rows-per-page.
	PageSize int `yaml:"page_size"`

	// UniqueValueCacheSize bounds the per-column unique-values memo.
	UniqueValueCacheSize int `yaml:"unique_value_cache_size"`
}

// SelectionConfig tunes selection notification coalescing and batching.
type SelectionConfig struct {
	DebounceThreshold int      `yaml:"debounce_threshold"`
	DebounceInterval  Duration `yaml:"debounce_interval"`
	BatchThreshold    int      `yaml:"batch_threshold"`
	BatchSize         int      `yaml:"batch_size"`
}

// WatchdogConfig tunes the loading supervisor.
type WatchdogConfig struct {
	MaxConsecutiveStarts int      `yaml:"max_consecutive_starts"`
	LoadingBudget        Duration `yaml:"loading_budget"`
	MaxRecoveryAttempts  int      `yaml:"max_recovery_attempts"`
	RecoveryInterval     Duration `yaml:"recovery_interval"`
}

// CollectorConfig tunes the demo data source.
type CollectorConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Interval Duration `yaml:"interval"`
}

// DefaultConfig returns the default configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
			Theme:    "default",
		},
		Engine: EngineConfig{
			PageSize:             50,
			UniqueValueCacheSize: 64,
		},
		Selection: SelectionConfig{
			DebounceThreshold: 500,
			DebounceInterval:  Duration{50 * time.Millisecond},
			BatchThreshold:    1000,
			BatchSize:         500,
		},
		Watchdog: WatchdogConfig{
			MaxConsecutiveStarts: 5,
			LoadingBudget:        Duration{10 * time.Second},
			MaxRecoveryAttempts:  5,
			RecoveryInterval:     Duration{250 * time.Millisecond},
		},
		Collector: CollectorConfig{
			Enabled:  true,
			Interval: Duration{2 * time.Second},
		},
	}
}
