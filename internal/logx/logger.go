// Package logx configures the process-wide zerolog logger.
package logx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Environment represents the deployment environment of the appliance.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// ParseEnvironment normalises v into a known environment.
// Unknown values fall back to Development.
func ParseEnvironment(v string) Environment {
	if Environment(v) == Production {
		return Production
	}
	return Development
}

// Options configures Init.
type Options struct {
	Environment Environment
	// File receives a copy of every log line when set.
	File string
	// Console overrides the console destination (stderr by default).
	Console io.Writer
}

// Init replaces the global logger. The returned closer releases the log file,
// if one was opened.
func Init(opts Options) (io.Closer, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	var (
		out   io.Writer = console
		level           = zerolog.DebugLevel
		file  *os.File
	)
	if opts.Environment == Production {
		level = zerolog.InfoLevel
	} else {
		out = zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) { w.Out = console })
	}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		file = f
		out = zerolog.MultiLevelWriter(out, file)
	}

	log.Logger = zerolog.New(out).With().Timestamp().Caller().Logger().Level(level)

	if file == nil {
		return nopCloser{}, nil
	}
	return file, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func Debug() *zerolog.Event {
	return log.Debug()
}

func Info() *zerolog.Event {
	return log.Info()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

func Error() *zerolog.Event {
	return log.Error()
}

func Fatal() *zerolog.Event {
	return log.Fatal()
}
