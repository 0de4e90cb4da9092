// Package logging provides structured logging for kview.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	clog "github.com/charmbracelet/log"
)

// Logger is the structured logging interface used across kview.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	// With returns a new logger with additional key-value pairs.
	With(args ...any) Logger
	// Shutdown closes the log file, if one was opened.
	Shutdown() error
}

// Config selects where and how logs are written.
type Config struct {
	Level  string
	Format string // "text" or "json"
	// File is opened in append mode when Writer is nil.
	File string
	// Writer takes precedence over File.
	Writer io.Writer
}

type loggerImpl struct {
	clogger *clog.Logger
	closer  *fileCloser
}

// fileCloser is shared by a logger and all loggers derived with With.
type fileCloser struct {
	once sync.Once
	file *os.File
	err  error
}

func (c *fileCloser) close() error {
	if c == nil || c.file == nil {
		return nil
	}
	c.once.Do(func() { c.err = c.file.Close() })
	return c.err
}

// New builds a logger from cfg. With neither Writer nor File set it returns
// a no-op logger: the TUI owns stdout and stderr.
func New(cfg Config) (Logger, error) {
	w := cfg.Writer
	var closer *fileCloser
	if w == nil {
		if cfg.File == "" {
			return Nop(), nil
		}
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = f
		closer = &fileCloser{file: f}
	}

	clogger := clog.NewWithOptions(w, clog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339Nano,
		Level:           parseLevel(cfg.Level),
	})
	if strings.EqualFold(cfg.Format, "json") {
		clogger.SetFormatter(clog.JSONFormatter)
	} else {
		clogger.SetFormatter(clog.TextFormatter)
	}
	return &loggerImpl{clogger: clogger, closer: closer}, nil
}

// parseLevel converts a string level to clog.Level.
func parseLevel(level string) clog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return clog.DebugLevel
	case "info":
		return clog.InfoLevel
	case "warn", "warning":
		return clog.WarnLevel
	case "error":
		return clog.ErrorLevel
	default:
		return clog.InfoLevel
	}
}

func (l *loggerImpl) Debug(msg string, args ...any) { l.clogger.Debug(msg, args...) }
func (l *loggerImpl) Info(msg string, args ...any)  { l.clogger.Info(msg, args...) }
func (l *loggerImpl) Warn(msg string, args ...any)  { l.clogger.Warn(msg, args...) }
func (l *loggerImpl) Error(msg string, args ...any) { l.clogger.Error(msg, args...) }

func (l *loggerImpl) With(args ...any) Logger {
	return &loggerImpl{clogger: l.clogger.With(args...), closer: l.closer}
}

func (l *loggerImpl) Shutdown() error {
	return l.closer.close()
}

// noopLogger is a logger that discards all output.
type noopLogger struct{}

func (n noopLogger) Debug(msg string, args ...any) {}
func (n noopLogger) Info(msg string, args ...any)  {}
func (n noopLogger) Warn(msg string, args ...any)  {}
func (n noopLogger) Error(msg string, args ...any) {}
func (n noopLogger) With(args ...any) Logger       { return n }
func (n noopLogger) Shutdown() error               { return nil }

// Nop returns a logger that discards everything.
func Nop() Logger { return noopLogger{} }

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return Nop()
	}
	return l
}
