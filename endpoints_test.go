package main

import (
	"bytes"
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlio/sqlio/core/format"
	"github.com/sqlio/sqlio/logger"
	"github.com/sqlio/sqlio/sqlclient"
)

func newTestClient(t *testing.T) *sqlclient.Client {
	t.Helper()

	path := filepath.Join(t.TempDir(), "cli.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	for _, stmt := range []string{
		"CREATE TABLE users (id INTEGER, name TEXT)",
		"INSERT INTO users VALUES (1, 'john'), (2, 'jane'), (3, 'jim'), (4, 'joe')",
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	return sqlclient.NewClient("sqlite:///"+path, sqlclient.WithLogger(logger.Discard()))
}

func TestServe_Queries(t *testing.T) {
	client := newTestClient(t)

	var out bytes.Buffer
	err := serve(context.Background(), "queries", client, &request{
		query:         "SELECT * FROM users",
		partitionOpts: []sqlclient.QueryOption{sqlclient.WithPartitionCol("id"), sqlclient.WithNumPartitions(2)},
		formatter:     format.NewCSV(),
	}, &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "query", lines[0])
	assert.Contains(t, lines[1], "id >= 1 AND id < 2 OR id IS NULL")
	assert.Contains(t, lines[2], "id >= 2 AND id <= 4")
}

func TestServe_DF(t *testing.T) {
	client := newTestClient(t)

	var out bytes.Buffer
	err := serve(context.Background(), "df", client, &request{
		query:     "SELECT name FROM users WHERE id < 3",
		readOpts:  []sqlclient.ReadOption{sqlclient.WithInferSchemaLength(1)},
		formatter: format.NewCSV(),
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, "name\njohn\njane\n", out.String())

	err = serve(context.Background(), "df", client, &request{
		query:         "SELECT * FROM users",
		partitionOpts: []sqlclient.QueryOption{sqlclient.WithPartitionCol("id")},
		formatter:     format.NewCSV(),
	}, &out)
	assert.Error(t, err)
}

func TestServe_UnknownMode(t *testing.T) {
	err := serve(context.Background(), "stream", nil, &request{}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "df, queries")
}

func TestNewFormatter(t *testing.T) {
	for _, name := range []string{"json", "csv", "table"} {
		f, err := newFormatter(name)
		require.NoError(t, err)
		assert.NotNil(t, f)
	}

	_, err := newFormatter("xml")
	assert.Error(t, err)
}

func TestParams(t *testing.T) {
	p := params{}
	require.NoError(t, p.Set("sslmode=disable"))
	require.NoError(t, p.Set("search_path=a=b"))
	assert.Equal(t, "a=b", p["search_path"])
	assert.Error(t, p.Set("novalue"))
}

func TestRun_InvalidLogLevel(t *testing.T) {
	saved := logLevelFlag
	t.Cleanup(func() { logLevelFlag = saved })
	logLevelFlag = "loud"

	var out bytes.Buffer
	err := run(context.Background(), &out)
	require.ErrorContains(t, err, `invalid log level "loud"`)
	assert.Empty(t, out.String())
}
