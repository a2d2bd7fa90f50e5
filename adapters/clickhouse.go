package adapters

import (
	"database/sql"
	"fmt"

	_ "github.com/ClickHouse/clickhouse-go/v2"

	"github.com/sqlio/sqlio/core"
	"github.com/sqlio/sqlio/core/builders"
)

// Register client
func init() {
	_ = register(&Clickhouse{}, "clickhouse")
}

var _ core.Adapter = (*Clickhouse)(nil)

type Clickhouse struct{}

func clickhouseDSN(url string, params map[string]string) (string, error) {
	u, err := parseNetworkURL(url, params)
	if err != nil {
		return "", err
	}
	u.Scheme = "clickhouse"

	return u.String(), nil
}

func (c *Clickhouse) Connect(url string, opts *core.ConnOptions) (core.Driver, error) {
	dsn, err := clickhouseDSN(url, paramsOf(opts))
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("clickhouse", dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to clickhouse database: %v", err)
	}

	return builders.NewDriver(
		builders.NewClient(db, clientOptions(opts)...),
		builders.NewDialect("clickhouse",
			builders.WithQuotes("`", "`"),
			builders.WithPercentileFunc(func(column string, p float64) string {
				return fmt.Sprintf("quantileExact(%s)(%s)", builders.FormatPercentile(p), column)
			}),
		),
	), nil
}
