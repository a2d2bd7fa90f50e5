package integration

import (
	"context"
	"log"
	"testing"

	tsuite "github.com/stretchr/testify/suite"
	tc "github.com/testcontainers/testcontainers-go"

	"github.com/sqlio/sqlio/adapters"
	"github.com/sqlio/sqlio/sqlclient"
	th "github.com/sqlio/sqlio/tests/testhelpers"
)

// MySQLTestSuite is the test suite for the mysql adapter.
type MySQLTestSuite struct {
	partitionSuite
	ctr *th.MySQLContainer
}

func TestMySQLTestSuite(t *testing.T) {
	tsuite.Run(t, new(MySQLTestSuite))
}

func (suite *MySQLTestSuite) SetupSuite() {
	suite.ctx = context.Background()
	ctr, err := th.NewMySQLContainer(suite.ctx)
	if err != nil {
		log.Fatal(err)
	}

	suite.ctr = ctr
	suite.conn = ctr.Conn
	suite.client = suite.newClient(ctr.ConnURL,
		sqlclient.WithConnOptions(adapters.WithParam("tls", "skip-verify")))
	suite.rowNumberQuery = "SELECT u.*, ROW_NUMBER() OVER (ORDER BY id) AS rn FROM users u"
	suite.limitQuery = "SELECT * FROM users ORDER BY id LIMIT 100"
}

func (suite *MySQLTestSuite) TearDownSuite() {
	tc.CleanupContainer(suite.T(), suite.ctr)
}

func (suite *MySQLTestSuite) TestShouldErrorInvalidQuery() {
	_, err := suite.client.ReturnQueries(suite.ctx, "invalid sql")
	suite.Require().Error(err)
	suite.Contains(err.Error(), "You have an error in your SQL syntax")
}
