package adapters

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/databricks/databricks-sql-go"

	"github.com/sqlio/sqlio/core"
	"github.com/sqlio/sqlio/core/builders"
)

// Register client
func init() {
	_ = register(&Databricks{}, "databricks")
}

var _ core.Adapter = (*Databricks)(nil)

type Databricks struct{}

// databricksDSN strips the scheme of databricks://token:<pat>@host:443/sql/1.0/warehouses/<id>,
// which leaves the dsn format databricks-sql-go expects.
func databricksDSN(url string, params map[string]string) (string, error) {
	u, err := parseNetworkURL(url, params)
	if err != nil {
		return "", err
	}

	return strings.TrimPrefix(u.String(), u.Scheme+"://"), nil
}

func (d *Databricks) Connect(url string, opts *core.ConnOptions) (core.Driver, error) {
	dsn, err := databricksDSN(url, paramsOf(opts))
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("databricks", dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to databricks: %v", err)
	}

	return builders.NewDriver(
		builders.NewClient(db, clientOptions(opts)...),
		builders.NewDialect("databricks",
			builders.WithQuotes("`", "`"),
			builders.WithPercentileFunc(func(column string, p float64) string {
				return fmt.Sprintf("percentile(%s, %s)", column, builders.FormatPercentile(p))
			}),
		),
	), nil
}
