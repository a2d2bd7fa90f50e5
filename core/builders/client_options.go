package builders

import (
	"strings"
	"time"
)

type clientConfig struct {
	typeProcessors  map[string]func(any) any
	maxOpenConns    int
	connMaxLifetime time.Duration
}

type ClientOption func(*clientConfig)

func WithCustomTypeProcessor(typ string, fn func(any) any) ClientOption {
	return func(cc *clientConfig) {
		t := strings.ToLower(typ)
		_, ok := cc.typeProcessors[t]
		if ok {
			// processor already registered for this type
			return
		}

		cc.typeProcessors[t] = fn
	}
}

func WithMaxOpenConns(n int) ClientOption {
	return func(cc *clientConfig) {
		cc.maxOpenConns = n
	}
}

func WithConnMaxLifetime(d time.Duration) ClientOption {
	return func(cc *clientConfig) {
		cc.connMaxLifetime = d
	}
}
