package config

import "time"

// Config holds all engine configuration.
type Config struct {
	Log    LogConfig    `mapstructure:"log" validate:"required"`
	Assets AssetsConfig `mapstructure:"assets" validate:"required"`
	Jobs   JobsConfig   `mapstructure:"jobs" validate:"required"`
}

// LogConfig controls the process wide logger.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Prefix string `mapstructure:"prefix"`
}

// AssetsConfig describes where assets live and how they are loaded.
type AssetsConfig struct {
	// BasePath is joined to relative manifest and entry paths.
	BasePath  string           `mapstructure:"base_path"`
	Manifests []ManifestConfig `mapstructure:"manifests" validate:"dive"`
	// Watch reloads assets when their files change.
	Watch bool `mapstructure:"watch"`
	// Parallelism > 0 preloads every asset during initialization with at
	// most that many loads at once. 0 loads in the background on the job
	// system.
	Parallelism  int           `mapstructure:"parallelism" validate:"gte=0"`
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"gt=0"`
}

// ManifestConfig is one manifest and the catalog it feeds.
type ManifestConfig struct {
	// Name of the catalog. Manifests sharing a name share a catalog.
	Name string `mapstructure:"name" validate:"required"`
	// Kind selects the loader, see loaders.ResourceType.
	Kind string `mapstructure:"kind" validate:"required,oneof=text document json toml binary shader image material bitmap_font system_font"`
	Path string `mapstructure:"path" validate:"required"`
}

// JobsConfig sizes the worker pool that runs background loads.
type JobsConfig struct {
	Workers   int `mapstructure:"workers" validate:"gt=0"`
	QueueSize int `mapstructure:"queue_size" validate:"gte=0"`
}
