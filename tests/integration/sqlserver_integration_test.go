package integration

import (
	"context"
	"log"
	"testing"

	tsuite "github.com/stretchr/testify/suite"
	tc "github.com/testcontainers/testcontainers-go"

	th "github.com/sqlio/sqlio/tests/testhelpers"
)

// SQLServerTestSuite is the test suite for the sqlserver adapter.
type SQLServerTestSuite struct {
	partitionSuite
	ctr *th.MSSQLServerContainer
}

func TestSQLServerTestSuite(t *testing.T) {
	tsuite.Run(t, new(SQLServerTestSuite))
}

func (suite *SQLServerTestSuite) SetupSuite() {
	suite.ctx = context.Background()
	ctr, err := th.NewSQLServerContainer(suite.ctx)
	if err != nil {
		log.Fatal(err)
	}

	suite.ctr = ctr
	suite.conn = ctr.Conn
	suite.client = suite.newClient(ctr.ConnURL)
	suite.rowNumberQuery = "SELECT u.*, ROW_NUMBER() OVER (ORDER BY id) AS rn FROM users u"
	// ORDER BY is only valid in a derived table together with TOP
	suite.limitQuery = "SELECT TOP 100 * FROM users ORDER BY id"
}

func (suite *SQLServerTestSuite) TearDownSuite() {
	tc.CleanupContainer(suite.T(), suite.ctr)
}

func (suite *SQLServerTestSuite) TestShouldErrorInvalidObject() {
	_, err := suite.client.ReturnQueries(suite.ctx, "SELECT * FROM no_such_table")
	suite.Require().Error(err)
	suite.Contains(err.Error(), "Invalid object name")
}
