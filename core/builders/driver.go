package builders

import (
	"context"

	"github.com/sqlio/sqlio/core"
)

var _ core.Driver = (*Driver)(nil)

// Driver is the generic core.Driver for database/sql backed adapters.
type Driver struct {
	c       *Client
	dialect core.Dialect
}

func NewDriver(c *Client, dialect core.Dialect) *Driver {
	return &Driver{
		c:       c,
		dialect: dialect,
	}
}

// Query runs the query on a dedicated connection which is released
// when the returned stream is closed.
func (d *Driver) Query(ctx context.Context, query string) (core.ResultStream, error) {
	con, err := d.c.Conn(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := con.Query(ctx, query)
	if err != nil {
		_ = con.Close()
		return nil, err
	}

	rows.SetCallback(func() {
		_ = con.Close()
	})
	return rows, nil
}

func (d *Driver) Dialect() core.Dialect {
	return d.dialect
}

// Ping verifies the connection, so factories fail early on unreachable databases.
func (d *Driver) Ping(ctx context.Context) error {
	return d.c.Ping(ctx)
}

func (d *Driver) Close() {
	d.c.Close()
}
