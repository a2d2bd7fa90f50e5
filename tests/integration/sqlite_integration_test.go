package integration

import (
	"context"
	"log"
	"testing"

	tsuite "github.com/stretchr/testify/suite"

	th "github.com/sqlio/sqlio/tests/testhelpers"
)

// SQLiteTestSuite runs the partitioning tests on a local sqlite file.
type SQLiteTestSuite struct {
	partitionSuite
	db *th.SQLiteDatabase
}

func TestSQLiteTestSuite(t *testing.T) {
	tsuite.Run(t, new(SQLiteTestSuite))
}

func (suite *SQLiteTestSuite) SetupSuite() {
	suite.ctx = context.Background()
	db, err := th.NewSQLiteDatabase(suite.ctx, suite.T().TempDir())
	if err != nil {
		log.Fatal(err)
	}

	suite.db = db
	suite.conn = db.Conn
	suite.client = suite.newClient(db.ConnURL)
	suite.rowNumberQuery = "SELECT *, ROW_NUMBER() OVER (ORDER BY id) AS rn FROM users"
	suite.limitQuery = "SELECT * FROM users ORDER BY id LIMIT 100"
}

func (suite *SQLiteTestSuite) TestShouldErrorNonExistentDatabase() {
	client := suite.newClient("sqlite:///" + suite.T().TempDir() + "/missing.db")

	_, err := client.ReturnQueries(suite.ctx, "SELECT * FROM users")
	suite.Require().Error(err)
	suite.Contains(err.Error(), "no such table")
}
