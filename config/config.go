/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// AWSConfig holds the backing store connection settings. Credentials are
// read from the environment, never from the config file.
type AWSConfig struct {
	Region    string `yaml:"region"`
	Table     string `yaml:"table"`
	AccessKey string `yaml:"-"`
	SecretKey string `yaml:"-"`
}

// Duration wraps time.Duration so yaml values like "100ms" parse.
type Duration time.Duration

// UnmarshalYAML accepts either a duration string or a nanosecond count.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("invalid duration value: %w", err)
	}
	if dur, err := time.ParseDuration(s); err == nil {
		*d = Duration(dur)
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(n)
		return nil
	}
	return fmt.Errorf("invalid duration %q", s)
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// EngineConfig holds the batch engine knobs.
type EngineConfig struct {
	MaxBatchSize         int      `yaml:"maxBatchSize"`
	MaxConcurrency       int      `yaml:"maxConcurrency"`
	SequentialPartitions bool     `yaml:"sequentialPartitions"`
	RetryAttempts        uint     `yaml:"retryAttempts"`
	RetryBaseDelay       Duration `yaml:"retryBaseDelay"`
	RetryMaxDelay        Duration `yaml:"retryMaxDelay"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Config is the full application configuration.
type Config struct {
	AWS     AWSConfig     `yaml:"aws"`
	Engine  EngineConfig  `yaml:"engine"`
	Logging LoggingConfig `yaml:"logging"`
}

// Default returns a configuration with the standard engine limits.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			MaxBatchSize:   100,
			MaxConcurrency: 4,
			RetryAttempts:  5,
			RetryBaseDelay: Duration(100 * time.Millisecond),
			RetryMaxDelay:  Duration(2 * time.Second),
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads configuration from an optional yaml file, then overlays
// environment variables. A .env file in the working directory is loaded
// first when present.
//
// Recognized environment variables: AWS_ACCESS_KEY, AWS_SECRET_KEY,
// AWS_REGION, AWS_DDB_TABLE, LOG_LEVEL.
func Load(path string) (*Config, error) {
	// Missing .env is not an error; explicit env vars still apply.
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if v := os.Getenv("AWS_ACCESS_KEY"); v != "" {
		cfg.AWS.AccessKey = v
	}
	if v := os.Getenv("AWS_SECRET_KEY"); v != "" {
		cfg.AWS.SecretKey = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.AWS.Region = v
	}
	if v := os.Getenv("AWS_DDB_TABLE"); v != "" {
		cfg.AWS.Table = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	// Zero means "use the default" for any engine knob.
	if c.Engine.MaxBatchSize < 0 || c.Engine.MaxBatchSize > 100 {
		return fmt.Errorf("engine.maxBatchSize must be between 0 and 100, got %d", c.Engine.MaxBatchSize)
	}
	if c.Engine.MaxConcurrency < 0 {
		return fmt.Errorf("engine.maxConcurrency must not be negative, got %d", c.Engine.MaxConcurrency)
	}
	return nil
}

// NewLogger builds a console logger at the configured level. An
// unparseable level falls back to info.
func NewLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(writer).Level(lvl).With().Timestamp().Logger()
}
