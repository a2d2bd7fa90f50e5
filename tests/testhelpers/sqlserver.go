package testhelpers

import (
	"context"

	tc "github.com/testcontainers/testcontainers-go"
	tcmssql "github.com/testcontainers/testcontainers-go/modules/mssql"

	"github.com/sqlio/sqlio/adapters"
	"github.com/sqlio/sqlio/core"
)

type MSSQLServerContainer struct {
	*tcmssql.MSSQLServerContainer
	ConnURL string
	Conn    core.ConnFactory
}

// NewSQLServerContainer creates a new MS SQL Server container seeded with
// testdata/sqlserver_seed.sql and a connection factory for it.
func NewSQLServerContainer(ctx context.Context, opts ...adapters.ConnOption) (*MSSQLServerContainer, error) {
	const password = "H3ll0@W0rld"
	seedFile, err := GetTestDataFile("sqlserver_seed.sql")
	if err != nil {
		return nil, err
	}
	defer seedFile.Close()

	ctr, err := tcmssql.Run(
		ctx,
		"mcr.microsoft.com/mssql/server:2022-CU17-ubuntu-22.04",
		tcmssql.WithAcceptEULA(), // ok for testing purposes
		tcmssql.WithPassword(password),
		tc.CustomizeRequest(tc.GenericContainerRequest{
			ContainerRequest: tc.ContainerRequest{
				Files: []tc.ContainerFile{
					{
						Reader:            seedFile,
						ContainerFilePath: seedFile.Name(),
						FileMode:          0o644,
					},
				},
			},
			ProviderType: GetContainerProvider(),
		}),
		tc.WithAfterReadyCommand(
			tc.NewRawCommand([]string{
				"/opt/mssql-tools18/bin/sqlcmd",
				"-S", "localhost",
				"-U", "sa",
				"-P", password,
				"-No",
				"-i", seedFile.Name(),
			}),
		),
	)
	if err != nil {
		return nil, err
	}

	connURL, err := ctr.ConnectionString(ctx, "encrypt=false", "TrustServerCertificate=true")
	if err != nil {
		return nil, err
	}

	conn, err := adapters.NewConnFactory(connURL, opts...)
	if err != nil {
		return nil, err
	}

	return &MSSQLServerContainer{
		MSSQLServerContainer: ctr,
		ConnURL:              connURL,
		Conn:                 conn,
	}, nil
}
