package adapters

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/sqlio/sqlio/core"
	"github.com/sqlio/sqlio/core/builders"
	"github.com/sqlio/sqlio/logger"
)

var (
	errNoValidTypeAliases   = errors.New("no valid type aliases provided")
	ErrUnsupportedTypeAlias = errors.New("no driver registered for provided type alias")
	ErrInvalidURL           = errors.New("invalid database url")
)

// registeredAdapters holds implemented adapters - specific adapters register themselves in their init functions.
// The main reason is to be able to compile the binary without unsupported os/arch of specific drivers.
var registeredAdapters = make(map[string]core.Adapter)

// register registers a new adapter for specific database
func register(adapter core.Adapter, aliases ...string) error {
	if len(aliases) < 1 {
		return errNoValidTypeAliases
	}

	invalidCount := 0
	for _, alias := range aliases {
		if alias == "" {
			invalidCount++
			continue
		}
		registeredAdapters[alias] = adapter
	}

	if invalidCount == len(aliases) {
		return errNoValidTypeAliases
	}

	return nil
}

// Mux is an interface to all internal adapters.
type Mux struct{}

func (*Mux) GetAdapter(typ string) (core.Adapter, error) {
	value, ok := registeredAdapters[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedTypeAlias, typ)
	}

	return value, nil
}

func (*Mux) AddAdapter(typ string, adapter core.Adapter) error {
	return register(adapter, typ)
}

// Dialect returns the dialect name of the url, e.g. "postgresql+psycopg2://..." -> "postgresql".
func Dialect(url string) (string, error) {
	i := strings.Index(url, "://")
	if i <= 0 {
		return "", fmt.Errorf("%w: missing scheme in %q", ErrInvalidURL, redact(url))
	}

	scheme := strings.ToLower(url[:i])
	if j := strings.IndexByte(scheme, '+'); j >= 0 {
		scheme = scheme[:j]
	}

	return scheme, nil
}

// pinger is implemented by drivers which can verify their connection.
type pinger interface {
	Ping(context.Context) error
}

// NewConnFactory returns a factory opening a new connection to url on every call.
// The url is resolved eagerly, so unknown dialects fail here and not on first use.
func NewConnFactory(url string, opts ...ConnOption) (core.ConnFactory, error) {
	cfg := newConnConfig(opts...)

	params := (&core.ConnectionParams{
		ID:      core.ConnectionID(uuid.New().String()),
		URL:     url,
		Options: cfg.params,
	}).Expand()

	typ, err := Dialect(params.URL)
	if err != nil {
		return nil, err
	}

	adapter, err := new(Mux).GetAdapter(typ)
	if err != nil {
		return nil, fmt.Errorf("Mux.GetAdapter: %w", err)
	}

	log := cfg.logger
	if log == nil {
		log = logger.Default()
	}

	connOpts := &core.ConnOptions{
		Params:          params.Options,
		MaxOpenConns:    cfg.maxOpenConns,
		ConnMaxLifetime: cfg.connMaxLifetime,
		TypeProcessors:  cfg.typeProcessors,
	}

	return func(ctx context.Context) (core.Driver, error) {
		driver, err := adapter.Connect(params.URL, connOpts)
		if err != nil {
			return nil, fmt.Errorf("adapter.Connect: %w", err)
		}

		if p, ok := driver.(pinger); ok {
			if err := p.Ping(ctx); err != nil {
				driver.Close()
				return nil, err
			}
		}

		log.Debugf("opened %s connection %s", typ, params.ID)
		return driver, nil
	}, nil
}

// clientOptions converts connection options to sql client options.
func clientOptions(opts *core.ConnOptions) []builders.ClientOption {
	if opts == nil {
		return nil
	}

	out := []builders.ClientOption{
		builders.WithMaxOpenConns(opts.MaxOpenConns),
		builders.WithConnMaxLifetime(opts.ConnMaxLifetime),
	}
	for typ, fn := range opts.TypeProcessors {
		out = append(out, builders.WithCustomTypeProcessor(typ, fn))
	}

	return out
}

func paramsOf(opts *core.ConnOptions) map[string]string {
	if opts == nil {
		return nil
	}
	return opts.Params
}
