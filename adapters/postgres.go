package adapters

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/sqlio/sqlio/core"
	"github.com/sqlio/sqlio/core/builders"
)

// Register client
func init() {
	_ = register(&Postgres{}, "postgres", "postgresql", "pg", "redshift")
}

var _ core.Adapter = (*Postgres)(nil)

type Postgres struct{}

// postgresDSN normalizes the scheme ("postgresql+psycopg2", "redshift", ...) to
// one lib/pq understands and merges driver params into the query.
func postgresDSN(url string, params map[string]string) (string, error) {
	u, err := parseNetworkURL(url, params)
	if err != nil {
		return "", err
	}
	u.Scheme = "postgres"

	return u.String(), nil
}

func (p *Postgres) Connect(url string, opts *core.ConnOptions) (core.Driver, error) {
	dsn, err := postgresDSN(url, paramsOf(opts))
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to postgres database: %w", err)
	}

	return builders.NewDriver(
		builders.NewClient(db, clientOptions(opts)...),
		builders.NewDialect("postgres", builders.WithOrderedSetPercentile()),
	), nil
}
