package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. ANIMA_LOG_LEVEL.
const EnvPrefix = "ANIMA"

var ErrInvalidConfig = errors.New("config validation failed")

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.prefix", "Assets 📦 ")
	v.SetDefault("assets.base_path", "")
	v.SetDefault("assets.watch", false)
	v.SetDefault("assets.parallelism", 0)
	v.SetDefault("assets.poll_interval", 16*time.Millisecond)
	v.SetDefault("jobs.workers", runtime.NumCPU())
	v.SetDefault("jobs.queue_size", 64)
}

// Load reads the configuration file at path (TOML, JSON or YAML, picked
// by extension) and applies ANIMA_ environment overrides on top. An empty
// path loads defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct tags of cfg.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, err)
	}
	return nil
}

// Default is the configuration Load returns without file or environment.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Prefix: "Assets 📦 "},
		Assets: AssetsConfig{
			PollInterval: 16 * time.Millisecond,
		},
		Jobs: JobsConfig{
			Workers:   runtime.NumCPU(),
			QueueSize: 64,
		},
	}
}
