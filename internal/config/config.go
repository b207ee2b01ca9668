// Package config loads trackview settings from a YAML file, a .env file
// and the environment, in that order of increasing precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/roach88/trackview/internal/logging"
)

const (
	DefaultDB    = "trackview.db"
	DefaultFPS   = 30
	DefaultLevel = "info"
)

// Environment variables read by ApplyEnv.
const (
	EnvLogLevel = "TRACKVIEW_LOG_LEVEL"
	EnvLogFile  = "TRACKVIEW_LOG_FILE"
	EnvDB       = "TRACKVIEW_DB"
	EnvFPS      = "TRACKVIEW_FPS"
)

type Config struct {
	Log      LogConfig      `yaml:"log"`
	DB       string         `yaml:"db"`
	Playback PlaybackConfig `yaml:"playback"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty"`
	MaxAgeDays int    `yaml:"max_age_days,omitempty"`
	Compress   bool   `yaml:"compress,omitempty"`
}

// PlaybackConfig holds the defaults of the play, record and test commands.
type PlaybackConfig struct {
	FPS       float32 `yaml:"fps"`
	FixedStep float32 `yaml:"fixed_step,omitempty"`
	Loop      bool    `yaml:"loop,omitempty"`
	TrackMask uint32  `yaml:"track_mask,omitempty"`
	Editor    bool    `yaml:"editor,omitempty"`
	Batch     bool    `yaml:"batch,omitempty"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:      DefaultLevel,
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		DB:       DefaultDB,
		Playback: PlaybackConfig{FPS: DefaultFPS},
	}
}

// Load reads a YAML file over the defaults. Unknown fields are rejected.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadEnv loads .env style files into the process environment without
// overriding variables that are already set. Missing files are ignored;
// with no arguments ".env" in the working directory is tried.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides cfg from TRACKVIEW_* variables.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		c.Log.Level = v
	}
	if v, ok := os.LookupEnv(EnvLogFile); ok {
		c.Log.File = v
	}
	if v, ok := os.LookupEnv(EnvDB); ok {
		c.DB = v
	}
	if v, ok := os.LookupEnv(EnvFPS); ok {
		fps, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvFPS, err)
		}
		c.Playback.FPS = float32(fps)
	}
	return c.Validate()
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Playback.FPS <= 0 {
		return fmt.Errorf("playback.fps must be positive, got %v", c.Playback.FPS)
	}
	if c.Playback.FixedStep < 0 {
		return fmt.Errorf("playback.fixed_step must not be negative, got %v", c.Playback.FixedStep)
	}
	if c.DB == "" {
		return fmt.Errorf("db path is required")
	}
	return nil
}

// Logging converts the log section for logging.New.
func (c LogConfig) Logging() logging.Config {
	return logging.Config{
		Level:      c.Level,
		File:       c.File,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}
