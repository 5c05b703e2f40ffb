// Package config holds the runtime settings for importing and playing skeletal animation.
package config

import (
	"os"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-skin/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is the cause of every validation failure returned by Validate.
var ErrInvalid = errors.New("invalid config")

// Config holds the import and playback settings.
type Config struct {
	// Bone palette
	MaxBones int `yaml:"max_bones"`

	// DefaultTicksPerSecond is used for clips whose source does not report a tick rate.
	DefaultTicksPerSecond float32 `yaml:"default_ticks_per_second"`

	// Import worker pool
	ImportWorkers     int           `yaml:"import_workers"`
	ImportQueueSize   int           `yaml:"import_queue_size"`
	WorkerIdleTimeout time.Duration `yaml:"worker_idle_timeout"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	MaxBones      int
	ImportWorkers int
	LogLevel      string
	LogFormat     string
}

// Default returns a Config with every field set to its default.
func Default() Config {
	var c Config
	c.Resolve(Flags{})
	return c
}

// Load reads a YAML config file and returns Config.
// Fields not set in the file keep their zero values until Resolve is called.
//
// Parameters:
//   - path: the YAML file to read
//
// Returns:
//   - Config: the decoded config
//   - error: an error if the file cannot be read or parsed
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config: read %s", path)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "config: parse %s", path)
	}

	return cfg, nil
}

// Resolve fills in any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
//
// Parameters:
//   - flags: the CLI overrides
func (c *Config) Resolve(flags Flags) {
	c.MaxBones = common.Coalesce(flags.MaxBones, c.MaxBones, common.MaxBones)
	c.ImportWorkers = common.Coalesce(flags.ImportWorkers, c.ImportWorkers, runtime.NumCPU())
	c.LogLevel = common.Coalesce(flags.LogLevel, c.LogLevel, "info")
	c.LogFormat = common.Coalesce(flags.LogFormat, c.LogFormat, "text")

	c.DefaultTicksPerSecond = common.Coalesce(c.DefaultTicksPerSecond, 25)
	c.ImportQueueSize = common.Coalesce(c.ImportQueueSize, 16)
	c.WorkerIdleTimeout = common.Coalesce(c.WorkerIdleTimeout, 30*time.Second)
}

// Validate checks that the resolved config can be used.
//
// Returns:
//   - error: an error wrapping ErrInvalid describing the first bad field, or nil
func (c Config) Validate() error {
	if c.MaxBones <= 0 || c.MaxBones > common.MaxBones {
		return errors.Wrapf(ErrInvalid, "max_bones must be in [1, %d], got %d", common.MaxBones, c.MaxBones)
	}
	if c.DefaultTicksPerSecond <= 0 || !common.IsFinite(c.DefaultTicksPerSecond) {
		return errors.Wrapf(ErrInvalid, "default_ticks_per_second must be positive, got %v", c.DefaultTicksPerSecond)
	}
	if c.ImportWorkers <= 0 {
		return errors.Wrapf(ErrInvalid, "import_workers must be positive, got %d", c.ImportWorkers)
	}
	if c.ImportQueueSize <= 0 {
		return errors.Wrapf(ErrInvalid, "import_queue_size must be positive, got %d", c.ImportQueueSize)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrapf(ErrInvalid, "log_level: %v", err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return errors.Wrapf(ErrInvalid, "log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// NewLogger builds a logrus logger configured with the level and format of c.
// Call Validate first; an unparsable level falls back to info.
//
// Returns:
//   - *logrus.Logger: the configured logger
func (c Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if c.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}
