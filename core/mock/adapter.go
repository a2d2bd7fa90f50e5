package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/sqlio/sqlio/core"
	"github.com/sqlio/sqlio/core/builders"
)

var _ core.Driver = (*driver)(nil)

type driver struct {
	adapter *Adapter
}

func (d *driver) Query(ctx context.Context, query string) (core.ResultStream, error) {
	d.adapter.record(query)

	eff, ok := d.adapter.config.querySideEffects[query]
	if ok {
		err := eff(ctx)
		if err != nil {
			return nil, fmt.Errorf("side effect error: %w", err)
		}
	}

	res, ok := d.adapter.config.queryResults[query]
	if ok {
		opts := append([]ResultStreamOption{ResultStreamWithHeader(res.header...)}, d.adapter.config.resultStreamOptions...)
		return NewResultStream(res.rows, opts...), nil
	}

	return NewResultStream(d.adapter.data, d.adapter.config.resultStreamOptions...), nil
}

func (d *driver) Dialect() core.Dialect {
	return d.adapter.config.dialect
}

func (d *driver) Close() {}

var _ core.Adapter = (*Adapter)(nil)

// Adapter is an in-memory adapter which returns data for every query
// that doesn't have a registered result. Issued queries are recorded.
type Adapter struct {
	data   []core.Row
	config *adapterConfig

	mu      sync.Mutex
	queries []string
	opened  int
}

func NewAdapter(data []core.Row, opts ...AdapterOption) *Adapter {
	config := &adapterConfig{
		querySideEffects: make(map[string]func(context.Context) error),
		queryResults:     make(map[string]queryResult),
		dialect:          builders.NewDialect("mock"),

		resultStreamOptions: []ResultStreamOption{},
	}
	for _, opt := range opts {
		opt(config)
	}

	return &Adapter{
		data:   data,
		config: config,
	}
}

func (a *Adapter) Connect(_ string, _ *core.ConnOptions) (core.Driver, error) {
	if a.config.connectErr != nil {
		return nil, a.config.connectErr
	}

	a.mu.Lock()
	a.opened++
	a.mu.Unlock()

	return &driver{adapter: a}, nil
}

// Factory returns a connection factory backed by the adapter.
func (a *Adapter) Factory() core.ConnFactory {
	return func(context.Context) (core.Driver, error) {
		return a.Connect("", nil)
	}
}

// Queries returns all queries issued so far, in order.
func (a *Adapter) Queries() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.queries...)
}

// Opened returns how many connections the adapter handed out.
func (a *Adapter) Opened() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.opened
}

func (a *Adapter) record(query string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.queries = append(a.queries, query)
}
