// Package logging configures the process-wide zerolog logger. The TUI owns
// the terminal, so logs go to a file unless stderr is requested explicitly.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Targets that are not file paths.
const (
	TargetStderr  = "stderr"
	TargetDiscard = "discard"
)

var (
	mu     sync.RWMutex
	global = zerolog.Nop()
)

// Config selects where logs go and how verbose they are.
type Config struct {
	Level  string
	Target string // file path, TargetStderr or TargetDiscard
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Init replaces the global logger. The returned closer releases the log
// file, if one was opened.
func Init(cfg Config) (io.Closer, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		parsed, err := zerolog.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		level = parsed
	}

	out, closer, err := open(cfg.Target)
	if err != nil {
		return nil, err
	}

	zerolog.TimeFieldFormat = time.RFC3339
	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()

	mu.Lock()
	global = logger
	log.Logger = logger
	mu.Unlock()

	return closer, nil
}

func open(target string) (io.Writer, io.Closer, error) {
	switch target {
	case TargetDiscard:
		return io.Discard, nopCloser{}, nil
	case TargetStderr, "":
		return os.Stderr, nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, f, nil
}

// Logger returns the global logger. Before Init it discards everything.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// Component returns the global logger tagged with a component name.
func Component(name string) zerolog.Logger {
	return Logger().With().Str("component", name).Logger()
}
