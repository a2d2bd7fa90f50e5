package integration

import (
	"context"
	"log"
	"testing"

	tsuite "github.com/stretchr/testify/suite"
	tc "github.com/testcontainers/testcontainers-go"

	th "github.com/sqlio/sqlio/tests/testhelpers"
)

// PostgresTestSuite is the test suite for the postgres adapter.
type PostgresTestSuite struct {
	partitionSuite
	// ctr is the postgres testcontainer
	ctr *th.PostgresContainer
}

// TestPostgresTestSuite is the entrypoint for go test.
//
// testify/suite can't handle parallel tests, see
// https://github.com/stretchr/testify/issues/934
func TestPostgresTestSuite(t *testing.T) {
	tsuite.Run(t, new(PostgresTestSuite))
}

func (suite *PostgresTestSuite) SetupSuite() {
	suite.ctx = context.Background()
	ctr, err := th.NewPostgresContainer(suite.ctx)
	if err != nil {
		log.Fatal(err)
	}

	suite.ctr = ctr
	suite.conn = ctr.Conn
	suite.client = suite.newClient(ctr.ConnURL)
	suite.rowNumberQuery = "SELECT *, ROW_NUMBER() OVER (ORDER BY id) AS rn FROM users"
	suite.limitQuery = "SELECT * FROM users ORDER BY id LIMIT 100"
}

func (suite *PostgresTestSuite) TearDownSuite() {
	tc.CleanupContainer(suite.T(), suite.ctr)
}

func (suite *PostgresTestSuite) TestShouldErrorInvalidQuery() {
	_, err := suite.client.ReturnQueries(suite.ctx, "invalid sql")
	suite.Require().Error(err)
	suite.Contains(err.Error(), "syntax error")
}
