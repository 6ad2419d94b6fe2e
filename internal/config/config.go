package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config is the process-wide dashboard configuration. It is loaded once at
// startup and passed down explicitly.
type Config struct {
	Primary        string
	FeedListen     string
	RequestTimeout time.Duration
	LogLevel       string
	LogFile        string
}

const (
	defaultConfigPath     = "~/.config/homedash/config.toml"
	defaultPrimary        = "127.0.0.1:5000"
	defaultRequestTimeout = 5 * time.Second
	defaultLogLevel       = "info"
	defaultLogFile        = "~/.local/state/homedash/homedash.log"
)

// Log targets that are not file paths.
const (
	LogStderr  = "stderr"
	LogDiscard = "discard"
)

type rawConfig struct {
	Primary        string `toml:"primary" yaml:"primary"`
	FeedListen     string `toml:"feed_listen" yaml:"feed_listen"`
	RequestTimeout string `toml:"request_timeout" yaml:"request_timeout"`
	LogLevel       string `toml:"log_level" yaml:"log_level"`
	LogFile        string `toml:"log_file" yaml:"log_file"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Primary:        defaultPrimary,
		RequestTimeout: defaultRequestTimeout,
		LogLevel:       defaultLogLevel,
		LogFile:        mustExpand(defaultLogFile),
	}
}

// Load locates and parses the homedash config, falling back to defaults when
// missing. Files ending in .yaml or .yml are read as YAML, anything else as
// TOML.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	switch strings.ToLower(filepath.Ext(resolved)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(bytes, &raw)
	default:
		err = toml.Unmarshal(bytes, &raw)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	return raw.normalize()
}

func (raw rawConfig) normalize() (Config, error) {
	cfg := Default()

	if v := strings.TrimSpace(raw.Primary); v != "" {
		cfg.Primary = v
	}
	cfg.FeedListen = strings.TrimSpace(raw.FeedListen)

	if v := strings.TrimSpace(raw.RequestTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse config: request_timeout: %w", err)
		}
		if d <= 0 {
			return Config{}, fmt.Errorf("parse config: request_timeout must be positive, got %s", d)
		}
		cfg.RequestTimeout = d
	}

	if v := strings.ToLower(strings.TrimSpace(raw.LogLevel)); v != "" {
		cfg.LogLevel = v
	}

	switch v := strings.TrimSpace(raw.LogFile); v {
	case "":
	case LogStderr, LogDiscard:
		cfg.LogFile = v
	default:
		cfg.LogFile = mustExpand(v)
	}

	return cfg, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
