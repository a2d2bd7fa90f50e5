package adapters

import (
	"strings"
	"time"

	"github.com/sqlio/sqlio/core"
)

type connConfig struct {
	params          map[string]string
	maxOpenConns    int
	connMaxLifetime time.Duration
	typeProcessors  map[string]func(any) any
	logger          core.Logger
}

// ConnOption configures connections produced by a factory.
type ConnOption func(*connConfig)

func newConnConfig(opts ...ConnOption) *connConfig {
	cfg := &connConfig{
		params:         make(map[string]string),
		typeProcessors: make(map[string]func(any) any),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithParam adds a driver parameter which is passed to the dsn verbatim.
// Values may use {{ env `VAR` }}, {{ exec `cmd` }} and {{ file `path` }} templates.
func WithParam(key, value string) ConnOption {
	return func(c *connConfig) {
		c.params[key] = value
	}
}

// WithParams adds all driver parameters of the map.
func WithParams(params map[string]string) ConnOption {
	return func(c *connConfig) {
		for k, v := range params {
			c.params[k] = v
		}
	}
}

func WithMaxOpenConns(n int) ConnOption {
	return func(c *connConfig) {
		c.maxOpenConns = n
	}
}

func WithConnMaxLifetime(d time.Duration) ConnOption {
	return func(c *connConfig) {
		c.connMaxLifetime = d
	}
}

// WithTypeProcessor converts values of a database type before they reach the engine.
func WithTypeProcessor(typ string, fn func(any) any) ConnOption {
	return func(c *connConfig) {
		c.typeProcessors[strings.ToLower(typ)] = fn
	}
}

func WithLogger(l core.Logger) ConnOption {
	return func(c *connConfig) {
		c.logger = l
	}
}
