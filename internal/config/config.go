package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

var ErrInvalidConfig = errors.New("invalid configuration")

const DefaultPath = "config.yaml"

type Config struct {
	Env     string  `yaml:"env" env-default:"local" env:"ENV"`
	App     App     `yaml:"app"`
	Metrics Metrics `yaml:"metrics"`
	History History `yaml:"history"`
}

type App struct {
	DirectoriesPath string `yaml:"directories-path" env:"DIRECTORIES_PATH"`
	// StableWaitSeconds is the quiet period after the last event before a
	// file is checked.
	StableWaitSeconds float64 `yaml:"stable-wait-seconds" env:"STABLE_WAIT_SECONDS" env-default:"5"`
	// StabilityCheckIntervalSeconds is the gap between the two size
	// samples. Zero means StableWaitSeconds.
	StabilityCheckIntervalSeconds float64 `yaml:"stability-check-interval-seconds" env:"STABILITY_CHECK_INTERVAL_SECONDS"`

	LogfilePath string `yaml:"logfile-path" env:"LOGFILE_PATH"`
	LogBackups  int    `yaml:"log-backups" env-default:"14"`

	TickInterval  time.Duration `yaml:"tick-interval" env-default:"1s"`
	CheckWorkers  int           `yaml:"check-workers" env:"CHECK_WORKERS" env-default:"4"`
	ShutdownGrace time.Duration `yaml:"shutdown-grace" env-default:"5s"`
	EvictAfter    time.Duration `yaml:"evict-after" env:"EVICT_AFTER"`
	// SweepExisting arms matching files already present at startup.
	SweepExisting bool `yaml:"sweep-existing" env:"SWEEP_EXISTING"`
}

type Metrics struct {
	Address string `yaml:"address" env:"METRICS_ADDRESS"`
}

type History struct {
	Path string `yaml:"path" env:"HISTORY_PATH"`
}

// Load reads and validates the config file at configPath. Environment
// variables override file values.
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("%w: config file: %v", ErrInvalidConfig, err)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%w: cannot read config: %v", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate fills derived defaults and rejects values the pipeline cannot
// run with.
func (c *Config) Validate() error {
	if c.App.StabilityCheckIntervalSeconds == 0 {
		c.App.StabilityCheckIntervalSeconds = c.App.StableWaitSeconds
	}

	switch {
	case c.App.DirectoriesPath == "":
		return fmt.Errorf("%w: app.directories-path is required", ErrInvalidConfig)
	case c.App.StableWaitSeconds <= 0:
		return fmt.Errorf("%w: app.stable-wait-seconds must be positive", ErrInvalidConfig)
	case c.App.StabilityCheckIntervalSeconds <= 0:
		return fmt.Errorf("%w: app.stability-check-interval-seconds must be positive", ErrInvalidConfig)
	case c.App.TickInterval <= 0:
		return fmt.Errorf("%w: app.tick-interval must be positive", ErrInvalidConfig)
	case c.App.CheckWorkers <= 0:
		return fmt.Errorf("%w: app.check-workers must be positive", ErrInvalidConfig)
	case c.App.EvictAfter < 0:
		return fmt.Errorf("%w: app.evict-after must not be negative", ErrInvalidConfig)
	}
	return nil
}

func (a App) StableWait() time.Duration {
	return seconds(a.StableWaitSeconds)
}

func (a App) StabilityCheckInterval() time.Duration {
	return seconds(a.StabilityCheckIntervalSeconds)
}

// Priority: flag > env > default.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		return env
	}
	return DefaultPath
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
