// Package logger provides the logrus backed core.Logger used across sqlio.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/sqlio/sqlio/core"
)

var _ core.Logger = (*Logger)(nil)

type Logger struct {
	entry *logrus.Entry
	file  *os.File
}

type config struct {
	level  logrus.Level
	output io.Writer
	file   string
	fields logrus.Fields
}

type Option func(*config)

// ValidateLevel reports whether level names a known log level.
func ValidateLevel(level string) error {
	if _, err := logrus.ParseLevel(level); err != nil {
		return fmt.Errorf("invalid log level %q: expected one of panic, fatal, error, warn, info, debug or trace", level)
	}
	return nil
}

// WithLevel sets the log level. Unknown levels keep the default, callers
// taking the level from user input check it with ValidateLevel first.
func WithLevel(level string) Option {
	return func(c *config) {
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return
		}
		c.level = lvl
	}
}

func WithOutput(w io.Writer) Option {
	return func(c *config) {
		c.output = w
	}
}

// WithFile appends log lines to the given file instead of the output.
func WithFile(path string) Option {
	return func(c *config) {
		c.file = path
	}
}

func WithField(key string, value any) Option {
	return func(c *config) {
		c.fields[key] = value
	}
}

func New(opts ...Option) *Logger {
	cfg := &config{
		level:  logrus.InfoLevel,
		output: os.Stderr,
		fields: logrus.Fields{},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	l := logrus.New()
	l.SetLevel(cfg.level)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	l.SetOutput(cfg.output)

	out := &Logger{entry: logrus.NewEntry(l).WithFields(cfg.fields)}

	if cfg.file != "" {
		file, err := os.OpenFile(cfg.file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o666)
		if err != nil {
			out.Errorf("logger.setupFile: %s", err)
		} else {
			l.SetOutput(file)
			out.file = file
		}
	}

	return out
}

var (
	defaultOnce   sync.Once
	defaultLogger *Logger
)

// Default returns the process wide logger, writing warnings and errors to stderr.
func Default() *Logger {
	defaultOnce.Do(func() {
		defaultLogger = New(WithLevel("warn"))
	})
	return defaultLogger
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(WithOutput(io.Discard), WithLevel("panic"))
}

// With returns a child logger with an extra field.
func (l *Logger) With(key string, value any) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

func (l *Logger) Close() {
	if l.file != nil {
		l.file.Close()
	}
}

func (l *Logger) Debug(msg string)                  { l.entry.Debug(msg) }
func (l *Logger) Debugf(format string, args ...any) { l.entry.Debugf(format, args...) }
func (l *Logger) Info(msg string)                   { l.entry.Info(msg) }
func (l *Logger) Infof(format string, args ...any)  { l.entry.Infof(format, args...) }
func (l *Logger) Warn(msg string)                   { l.entry.Warn(msg) }
func (l *Logger) Warnf(format string, args ...any)  { l.entry.Warnf(format, args...) }
func (l *Logger) Error(msg string)                  { l.entry.Error(msg) }
func (l *Logger) Errorf(format string, args ...any) { l.entry.Errorf(format, args...) }
