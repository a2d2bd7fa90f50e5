// Package sqlclient plans SQL queries into partitioned sub-queries and reads
// them into dataframes.
package sqlclient

import (
	"context"
	"fmt"

	"github.com/sqlio/sqlio/adapters"
	"github.com/sqlio/sqlio/core"
	"github.com/sqlio/sqlio/engine"
	"github.com/sqlio/sqlio/logger"
)

// Client reads from a single database.
type Client struct {
	conn            core.ConnFactory
	useNativeRunner bool
	logger          core.Logger
}

// NewClient creates a client for dbURL. It doesn't connect: connection errors,
// including an invalid url, surface on the first query.
func NewClient(dbURL string, opts ...Option) *Client {
	cfg := &clientConfig{
		useNativeRunner: true,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logger.Default()
	}

	c := &Client{
		useNativeRunner: cfg.useNativeRunner,
		logger:          cfg.logger,
	}

	conn, err := c.SetConn(dbURL, cfg.connOpts...)
	if err != nil {
		c.logger.Debugf("deferring connection error: %s", err)
		conn = core.FailingFactory(err)
	}
	c.conn = conn

	return c
}

// SetConn builds a connection factory for dbURL. The client keeps using the
// factory it was created with; callers that want the new one must hold on to
// the returned value.
func (c *Client) SetConn(dbURL string, opts ...adapters.ConnOption) (core.ConnFactory, error) {
	opts = append([]adapters.ConnOption{adapters.WithLogger(c.logger)}, opts...)

	conn, err := adapters.NewConnFactory(dbURL, opts...)
	if err != nil {
		return nil, &Error{
			Message: fmt.Sprintf("Failed to set connection. db_url: %s, error: %s", dbURL, err),
			err:     err,
		}
	}
	return conn, nil
}

func (c *Client) runnerOptions() []engine.ReadOption {
	opts := []engine.ReadOption{engine.WithLogger(c.logger)}
	if c.useNativeRunner {
		opts = append(opts, engine.WithRunner(engine.RunnerNative))
	}
	return opts
}

// ReturnQueries plans sql and returns the query of every partition, in the
// order the engine would read them.
func (c *Client) ReturnQueries(ctx context.Context, sql string, opts ...QueryOption) ([]string, error) {
	cfg := &queryConfig{readConfig: defaultReadConfig()}
	for _, opt := range opts {
		opt.applyQuery(cfg)
	}

	df, err := engine.ReadSQL(ctx, sql, c.conn, append(c.runnerOptions(), cfg.engineOptions()...)...)
	if err != nil {
		return nil, newError(err)
	}

	plan, err := df.Builder().ToPhysicalPlanScheduler(ctx, engine.GetContext().ExecutionConfig())
	if err != nil {
		return nil, newError(err)
	}

	planJSON, err := plan.ToJSONString()
	if err != nil {
		return nil, newError(err)
	}

	queries, err := extractQueries(planJSON)
	if err != nil {
		return nil, newError(err)
	}

	c.logger.Debugf("planned %d partition queries", len(queries))
	return queries, nil
}

// ReturnDF reads sql into a collected dataframe.
func (c *Client) ReturnDF(ctx context.Context, sql string, opts ...ReadOption) (*engine.DataFrame, error) {
	cfg := defaultReadConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	df, err := engine.ReadSQL(ctx, sql, c.conn, append(c.runnerOptions(), cfg.engineOptions()...)...)
	if err != nil {
		return nil, newError(err)
	}

	if err := df.Collect(ctx); err != nil {
		return nil, newError(err)
	}

	return df, nil
}
