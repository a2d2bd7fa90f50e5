package integration

import (
	"context"
	"log"
	"testing"

	tsuite "github.com/stretchr/testify/suite"
	tc "github.com/testcontainers/testcontainers-go"

	th "github.com/sqlio/sqlio/tests/testhelpers"
)

// ClickHouseTestSuite is the test suite for the clickhouse adapter.
type ClickHouseTestSuite struct {
	partitionSuite
	ctr *th.ClickHouseContainer
}

func TestClickHouseTestSuite(t *testing.T) {
	tsuite.Run(t, new(ClickHouseTestSuite))
}

func (suite *ClickHouseTestSuite) SetupSuite() {
	suite.ctx = context.Background()
	ctr, err := th.NewClickHouseContainer(suite.ctx)
	if err != nil {
		log.Fatal(err)
	}

	suite.ctr = ctr
	suite.conn = ctr.Conn
	suite.client = suite.newClient(ctr.ConnURL)
	suite.rowNumberQuery = "SELECT *, ROW_NUMBER() OVER (ORDER BY id) AS rn FROM users"
	suite.limitQuery = "SELECT * FROM users ORDER BY id LIMIT 100"
}

func (suite *ClickHouseTestSuite) TearDownSuite() {
	tc.CleanupContainer(suite.T(), suite.ctr)
}
