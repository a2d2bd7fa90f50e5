package testhelpers

import (
	"context"

	tc "github.com/testcontainers/testcontainers-go"
	tcpsql "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/sqlio/sqlio/adapters"
	"github.com/sqlio/sqlio/core"
)

type PostgresContainer struct {
	*tcpsql.PostgresContainer
	ConnURL string
	Conn    core.ConnFactory
}

// NewPostgresContainer creates a new postgres container seeded with
// testdata/postgres_seed.sql and a connection factory for it.
func NewPostgresContainer(ctx context.Context, opts ...adapters.ConnOption) (*PostgresContainer, error) {
	seedFile, err := GetTestDataFile("postgres_seed.sql")
	if err != nil {
		return nil, err
	}
	defer seedFile.Close()

	ctr, err := tcpsql.Run(
		ctx,
		"postgres:16-alpine",
		tcpsql.BasicWaitStrategies(),
		tc.CustomizeRequest(tc.GenericContainerRequest{
			ProviderType: GetContainerProvider(),
		}),
		tcpsql.WithInitScripts(seedFile.Name()),
		tcpsql.WithDatabase("dev"),
	)
	if err != nil {
		return nil, err
	}

	connURL, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, err
	}

	conn, err := adapters.NewConnFactory(connURL, opts...)
	if err != nil {
		return nil, err
	}

	return &PostgresContainer{
		PostgresContainer: ctr,
		ConnURL:           connURL,
		Conn:              conn,
	}, nil
}
