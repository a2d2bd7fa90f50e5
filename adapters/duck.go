//go:build cgo && ((darwin && (amd64 || arm64)) || (linux && (amd64 || arm64 || riscv64)))

package adapters

import (
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/sqlio/sqlio/core"
	"github.com/sqlio/sqlio/core/builders"
)

// Register client
func init() {
	_ = register(&Duck{}, "duck", "duckdb")
}

var _ core.Adapter = (*Duck)(nil)

type Duck struct{}

// duckDSN converts duckdb:///path.duckdb urls, an empty path opens an in-memory database.
func duckDSN(url string, params map[string]string) (string, error) {
	path, query, err := parseFileURL(url, params)
	if err != nil {
		return "", err
	}
	if path == ":memory:" {
		path = ""
	}

	if len(query) == 0 {
		return path, nil
	}

	return path + "?" + query.Encode(), nil
}

func (d *Duck) Connect(url string, opts *core.ConnOptions) (core.Driver, error) {
	dsn, err := duckDSN(url, paramsOf(opts))
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to duckdb database: %v", err)
	}

	return builders.NewDriver(
		builders.NewClient(db, clientOptions(opts)...),
		builders.NewDialect("duckdb", builders.WithOrderedSetPercentile()),
	), nil
}
