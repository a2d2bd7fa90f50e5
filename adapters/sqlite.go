//go:build (darwin && (amd64 || arm64)) || (freebsd && (386 || amd64 || arm || arm64)) || (linux && (386 || amd64 || arm || arm64 || ppc64le || riscv64 || s390x)) || (netbsd && amd64) || (openbsd && (amd64 || arm64)) || (windows && (amd64 || arm64))

package adapters

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/sqlio/sqlio/core"
	"github.com/sqlio/sqlio/core/builders"
)

// Register client
func init() {
	_ = register(&SQLite{}, "sqlite", "sqlite3")
}

var _ core.Adapter = (*SQLite)(nil)

type SQLite struct{}

// sqliteDSN converts sqlite:///path.db urls to modernc dsns.
// Params become a "file:" uri query, e.g. file:path.db?_pragma=busy_timeout(5000).
func sqliteDSN(url string, params map[string]string) (string, error) {
	path, query, err := parseFileURL(url, params)
	if err != nil {
		return "", err
	}

	if len(query) == 0 {
		return path, nil
	}

	return "file:" + path + "?" + query.Encode(), nil
}

func (s *SQLite) Connect(url string, opts *core.ConnOptions) (core.Driver, error) {
	dsn, err := sqliteDSN(url, paramsOf(opts))
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to sqlite database: %v", err)
	}

	return builders.NewDriver(
		builders.NewClient(db, clientOptions(opts)...),
		builders.NewDialect("sqlite"),
	), nil
}
