package builders

import (
	"context"
	"database/sql"
	"strings"

	"github.com/sqlio/sqlio/core"
)

// default sql client used by other specific implementations
type Client struct {
	db             *sql.DB
	typeProcessors map[string]func(any) any
}

func NewClient(db *sql.DB, opts ...ClientOption) *Client {
	config := clientConfig{
		typeProcessors: make(map[string]func(any) any),
	}
	for _, opt := range opts {
		opt(&config)
	}

	if config.maxOpenConns > 0 {
		db.SetMaxOpenConns(config.maxOpenConns)
	}
	if config.connMaxLifetime > 0 {
		db.SetConnMaxLifetime(config.connMaxLifetime)
	}

	return &Client{
		db:             db,
		typeProcessors: config.typeProcessors,
	}
}

// Ping verifies the database is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Client) Conn(ctx context.Context) (*Conn, error) {
	conn, err := c.db.Conn(ctx)
	if err != nil {
		return nil, err
	}

	return &Conn{
		conn:           conn,
		typeProcessors: c.typeProcessors,
	}, nil
}

func (c *Client) Close() {
	c.db.Close()
}

// connection to use for execution
type Conn struct {
	conn           *sql.Conn
	typeProcessors map[string]func(any) any
}

func (c *Conn) Close() error {
	return c.conn.Close()
}

func (c *Conn) getTypeProcessor(typ string) func(any) any {
	proc, ok := c.typeProcessors[strings.ToLower(typ)]
	if ok {
		return proc
	}

	return func(val any) any {
		valb, ok := val.([]byte)
		if ok {
			return string(valb)
		}
		return val
	}
}

// Query executes a query on a connection and returns a result stream.
// HasNext advances the underlying cursor, so it has to be followed by Next.
func (c *Conn) Query(ctx context.Context, query string) (*Result, error) {
	dbRows, err := c.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	header, err := dbRows.Columns()
	if err != nil {
		_ = dbRows.Close()
		return nil, err
	}

	dbCols, err := dbRows.ColumnTypes()
	if err != nil {
		_ = dbRows.Close()
		return nil, err
	}

	processors := make([]func(any) any, len(dbCols))
	for i := range dbCols {
		processors[i] = c.getTypeProcessor(dbCols[i].DatabaseTypeName())
	}

	// iteration errors are reported by the following Next call
	var iterErr error
	hasNextFunc := func() bool {
		if iterErr != nil {
			return true
		}
		if dbRows.Next() {
			return true
		}
		if err := dbRows.Err(); err != nil {
			iterErr = err
			return true
		}
		return false
	}

	nextFunc := func() (core.Row, error) {
		if iterErr != nil {
			return nil, iterErr
		}

		columns := make([]any, len(dbCols))
		columnPointers := make([]any, len(dbCols))
		for i := range columns {
			columnPointers[i] = &columns[i]
		}

		if err := dbRows.Scan(columnPointers...); err != nil {
			return nil, err
		}

		row := make(core.Row, len(dbCols))
		for i := range dbCols {
			row[i] = processors[i](columns[i])
		}

		return row, nil
	}

	rows := NewResultBuilder().
		WithNextFunc(nextFunc, hasNextFunc).
		WithHeader(header).
		WithMeta(&core.Meta{ColumnTypes: columnTypes(dbCols)}).
		WithCloseFunc(func() {
			_ = dbRows.Close()
		}).
		Build()

	return rows, nil
}
