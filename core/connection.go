package core

import (
	"context"
	"errors"
	"time"
)

var ErrNoConnection = errors.New("connection factory is not set")

type (
	// Adapter is an object which allows to connect to a database via url.
	Adapter interface {
		Connect(url string, opts *ConnOptions) (Driver, error)
	}

	// Driver is an interface for a live connection to a specific database.
	Driver interface {
		Query(context.Context, string) (ResultStream, error)
		Dialect() Dialect
		Close()
	}

	// Dialect renders the SQL statements the engine issues against a source database.
	Dialect interface {
		Name() string
		// Quote quotes an identifier.
		Quote(ident string) string
		// Literal renders a go value as a SQL literal.
		Literal(value any) string
		// Select wraps the query in a subquery and applies projection, predicate and limit.
		// Expressions are rendered verbatim, empty exprs select all columns, an empty
		// predicate means no WHERE clause and a negative limit means no limit.
		Select(query string, exprs []string, predicate string, limit int) string
		// Percentiles returns a single row query selecting the given percentiles of
		// column over query. ok is false if the dialect can't express it.
		Percentiles(query string, column string, percentiles []float64) (sql string, ok bool)
	}

	// ConnFactory produces a new live connection on every call.
	// Connections are never cached so parallel partition reads don't share them.
	ConnFactory func(ctx context.Context) (Driver, error)
)

// ConnOptions are driver options forwarded to adapters.
type ConnOptions struct {
	// Params are appended to the driver dsn verbatim.
	Params map[string]string

	MaxOpenConns    int
	ConnMaxLifetime time.Duration

	TypeProcessors map[string]func(any) any
}

// FailingFactory returns a factory that always fails with err.
// It is used to surface construction errors lazily, on first use.
func FailingFactory(err error) ConnFactory {
	return func(context.Context) (Driver, error) {
		return nil, err
	}
}
