package testhelpers

import (
	"context"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/clickhouse"

	"github.com/sqlio/sqlio/adapters"
	"github.com/sqlio/sqlio/core"
)

type ClickHouseContainer struct {
	*clickhouse.ClickHouseContainer
	ConnURL string
	Conn    core.ConnFactory
}

// NewClickHouseContainer creates a new clickhouse container seeded with
// testdata/clickhouse_seed.sql and a connection factory for it.
func NewClickHouseContainer(ctx context.Context, opts ...adapters.ConnOption) (*ClickHouseContainer, error) {
	seedFile, err := GetTestDataFile("clickhouse_seed.sql")
	if err != nil {
		return nil, err
	}
	defer seedFile.Close()

	ctr, err := clickhouse.Run(
		ctx,
		"clickhouse/clickhouse-server:25.1-alpine",
		tc.CustomizeRequest(tc.GenericContainerRequest{
			ProviderType: GetContainerProvider(),
		}),
		clickhouse.WithUsername("admin"),
		clickhouse.WithPassword(""),
		clickhouse.WithDatabase("dev"),
		clickhouse.WithInitScripts(seedFile.Name()),
	)
	if err != nil {
		return nil, err
	}

	connURL, err := ctr.ConnectionString(ctx)
	if err != nil {
		return nil, err
	}

	conn, err := adapters.NewConnFactory(connURL, opts...)
	if err != nil {
		return nil, err
	}

	return &ClickHouseContainer{
		ClickHouseContainer: ctr,
		ConnURL:             connURL,
		Conn:                conn,
	}, nil
}
