package mock

import (
	"context"

	"github.com/sqlio/sqlio/core"
)

type queryResult struct {
	header core.Header
	rows   []core.Row
}

type adapterConfig struct {
	querySideEffects map[string]func(context.Context) error
	queryResults     map[string]queryResult
	dialect          core.Dialect
	connectErr       error

	resultStreamOptions []ResultStreamOption
}

type AdapterOption func(*adapterConfig)

func AdapterWithQuerySideEffect(query string, sideEffect func(context.Context) error) AdapterOption {
	return func(c *adapterConfig) {
		_, ok := c.querySideEffects[query]
		if ok {
			panic("side effect already registered for query: " + query)
		}

		c.querySideEffects[query] = sideEffect
	}
}

// AdapterWithQueryResult registers a result returned for an exact query.
func AdapterWithQueryResult(query string, header core.Header, rows []core.Row) AdapterOption {
	return func(c *adapterConfig) {
		_, ok := c.queryResults[query]
		if ok {
			panic("result already registered for query: " + query)
		}

		c.queryResults[query] = queryResult{header: header, rows: rows}
	}
}

func AdapterWithDialect(dialect core.Dialect) AdapterOption {
	return func(c *adapterConfig) {
		c.dialect = dialect
	}
}

func AdapterWithConnectError(err error) AdapterOption {
	return func(c *adapterConfig) {
		c.connectErr = err
	}
}

func AdapterWithResultStreamOpts(opts ...ResultStreamOption) AdapterOption {
	return func(c *adapterConfig) {
		c.resultStreamOptions = append(c.resultStreamOptions, opts...)
	}
}
