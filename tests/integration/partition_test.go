package integration

import (
	"context"

	tsuite "github.com/stretchr/testify/suite"

	"github.com/sqlio/sqlio/core"
	"github.com/sqlio/sqlio/engine"
	"github.com/sqlio/sqlio/logger"
	"github.com/sqlio/sqlio/sqlclient"
	th "github.com/sqlio/sqlio/tests/testhelpers"
)

const (
	usersCount  = 1000
	ordersCount = 5000
)

// partitionSuite holds the partitioning tests shared by every database suite.
// Database suites embed it and fill ctx, conn and client in SetupSuite.
type partitionSuite struct {
	tsuite.Suite
	ctx    context.Context
	conn   core.ConnFactory
	client *sqlclient.Client
	// rowNumberQuery selects users with a synthetic rn column.
	rowNumberQuery string
	// limitQuery selects the first 100 users by id.
	limitQuery string
}

func (suite *partitionSuite) newClient(url string, opts ...sqlclient.Option) *sqlclient.Client {
	return sqlclient.NewClient(url, append([]sqlclient.Option{sqlclient.WithLogger(logger.Discard())}, opts...)...)
}

func (suite *partitionSuite) countRows(queries ...string) int {
	n, err := th.CountRows(suite.ctx, suite.conn, queries...)
	suite.Require().NoError(err)
	return n
}

func (suite *partitionSuite) TestShouldReturnSingleQueryWithoutPartitioning() {
	const query = "SELECT * FROM users"

	queries, err := suite.client.ReturnQueries(suite.ctx, query)
	suite.Require().NoError(err)
	suite.Require().Len(queries, 1)
	suite.Equal(suite.countRows(query), suite.countRows(queries...))
}

func (suite *partitionSuite) TestShouldPartitionOnID() {
	for _, k := range []int{1, 4} {
		queries, err := suite.client.ReturnQueries(suite.ctx, "SELECT * FROM users",
			sqlclient.WithPartitionCol("id"),
			sqlclient.WithNumPartitions(k),
		)
		suite.Require().NoError(err)
		suite.Len(queries, k)
		suite.Equal(usersCount, suite.countRows(queries...))
	}
}

func (suite *partitionSuite) TestShouldPartitionWithPercentileBounds() {
	queries, err := suite.client.ReturnQueries(suite.ctx, "SELECT * FROM users",
		sqlclient.WithPartitionCol("id"),
		sqlclient.WithNumPartitions(4),
		sqlclient.WithPartitionBoundStrategy(engine.PartitionBoundPercentile),
	)
	suite.Require().NoError(err)
	suite.Len(queries, 4)
	suite.Equal(usersCount, suite.countRows(queries...))
}

func (suite *partitionSuite) TestShouldRespectLimitInQuery() {
	queries, err := suite.client.ReturnQueries(suite.ctx, suite.limitQuery,
		sqlclient.WithPartitionCol("id"),
		sqlclient.WithNumPartitions(4),
	)
	suite.Require().NoError(err)
	suite.Len(queries, 4)
	suite.Equal(100, suite.countRows(queries...))
}

func (suite *partitionSuite) TestShouldPartitionOnRowNumber() {
	queries, err := suite.client.ReturnQueries(suite.ctx, suite.rowNumberQuery,
		sqlclient.WithPartitionCol("rn"),
		sqlclient.WithNumPartitions(4),
	)
	suite.Require().NoError(err)
	suite.Len(queries, 4)
	suite.Equal(usersCount, suite.countRows(queries...))
}

func (suite *partitionSuite) TestShouldPartitionJoinOnRowNumber() {
	const join = `SELECT u.id AS user_id, u.name, o.id AS order_id, o.amount, ROW_NUMBER() OVER (ORDER BY o.id) AS rn
		FROM users u JOIN orders o ON u.id = o.user_id`

	queries, err := suite.client.ReturnQueries(suite.ctx, join,
		sqlclient.WithPartitionCol("rn"),
		sqlclient.WithNumPartitions(4),
	)
	suite.Require().NoError(err)
	suite.Len(queries, 4)
	suite.Equal(ordersCount, suite.countRows(queries...))
}

func (suite *partitionSuite) TestShouldReturnDataFrame() {
	df, err := suite.client.ReturnDF(suite.ctx, "SELECT id, name FROM users WHERE id <= 10")
	suite.Require().NoError(err)
	defer df.Release()

	suite.Equal(10, df.NumRows())
	suite.Equal(core.Header{"id", "name"}, df.Header())
}

func (suite *partitionSuite) TestShouldErrorMissingTable() {
	_, err := suite.client.ReturnQueries(suite.ctx, "SELECT * FROM no_such_table")
	suite.Require().Error(err)
	suite.IsType(&sqlclient.Error{}, err)
}
