package testhelpers

import (
	"context"
	"fmt"

	tc "github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/sqlio/sqlio/adapters"
	"github.com/sqlio/sqlio/core"
)

type MySQLContainer struct {
	*tcmysql.MySQLContainer
	ConnURL string
	Conn    core.ConnFactory
}

// NewMySQLContainer creates a new MySQL container seeded with
// testdata/mysql_seed.sql and a connection factory for it.
func NewMySQLContainer(ctx context.Context, opts ...adapters.ConnOption) (*MySQLContainer, error) {
	seedFile, err := GetTestDataFile("mysql_seed.sql")
	if err != nil {
		return nil, err
	}
	defer seedFile.Close()

	ctr, err := tcmysql.Run(
		ctx,
		"mysql:9.2.0",
		tc.CustomizeRequest(tc.GenericContainerRequest{
			ProviderType: GetContainerProvider(),
		}),
		tcmysql.WithDatabase("dev"),
		tcmysql.WithPassword("password"),
		tcmysql.WithUsername("root"),
		tcmysql.WithScripts(seedFile.Name()),
	)
	if err != nil {
		return nil, err
	}

	host, err := ctr.Host(ctx)
	if err != nil {
		return nil, err
	}
	port, err := ctr.MappedPort(ctx, "3306/tcp")
	if err != nil {
		return nil, err
	}

	// the module returns a driver dsn, the client expects a url
	connURL := fmt.Sprintf("mysql://root:password@%s:%s/dev", host, port.Port())

	conn, err := adapters.NewConnFactory(connURL, append([]adapters.ConnOption{adapters.WithParam("tls", "skip-verify")}, opts...)...)
	if err != nil {
		return nil, err
	}

	return &MySQLContainer{
		MySQLContainer: ctr,
		ConnURL:        connURL,
		Conn:           conn,
	}, nil
}
