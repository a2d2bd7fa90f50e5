package builders_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/sqlio/sqlio/core"
	"github.com/sqlio/sqlio/core/builders"
)

func TestDriver_Query(t *testing.T) {
	r := require.New(t)

	db, mock, err := sqlmock.New()
	r.NoError(err)

	mock.ExpectQuery("SELECT id, name FROM users").WillReturnRows(
		sqlmock.NewRowsWithColumnDefinition(
			sqlmock.NewColumn("id").OfType("INTEGER", int64(0)),
			sqlmock.NewColumn("name").OfType("VARCHAR(20)", ""),
		).
			AddRow(int64(1), []byte("john")).
			AddRow(int64(2), []byte("jane")),
	)

	upper := func(v any) any {
		if s, ok := v.([]byte); ok {
			return "name:" + string(s)
		}
		return v
	}

	driver := builders.NewDriver(
		builders.NewClient(db, builders.WithCustomTypeProcessor("varchar(20)", upper)),
		builders.NewDialect("mock"),
	)

	stream, err := driver.Query(context.Background(), "SELECT id, name FROM users")
	r.NoError(err)

	r.Equal(core.Header{"id", "name"}, stream.Header())
	r.Equal([]core.ColumnType{
		{Name: "id", DatabaseType: "INTEGER"},
		{Name: "name", DatabaseType: "VARCHAR"},
	}, stream.Meta().ColumnTypes)

	result := new(core.Result)
	r.NoError(result.SetIter(stream))
	r.Equal([]core.Row{{int64(1), "name:john"}, {int64(2), "name:jane"}}, result.AllRows())

	r.NoError(mock.ExpectationsWereMet())
}

func TestDriver_QueryBytesBecomeStrings(t *testing.T) {
	r := require.New(t)

	db, mock, err := sqlmock.New()
	r.NoError(err)

	mock.ExpectQuery("SELECT name FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow([]byte("john")))

	driver := builders.NewDriver(builders.NewClient(db), builders.NewDialect("mock"))

	stream, err := driver.Query(context.Background(), "SELECT name FROM users")
	r.NoError(err)

	r.True(stream.HasNext())
	row, err := stream.Next()
	r.NoError(err)
	r.Equal(core.Row{"john"}, row)
	stream.Close()
}

func TestDriver_QueryError(t *testing.T) {
	r := require.New(t)

	db, mock, err := sqlmock.New()
	r.NoError(err)

	expected := errors.New("no such table: users")
	mock.ExpectQuery("SELECT").WillReturnError(expected)

	driver := builders.NewDriver(builders.NewClient(db), builders.NewDialect("mock"))

	_, err = driver.Query(context.Background(), "SELECT * FROM users")
	r.ErrorIs(err, expected)
}

func TestDriver_QueryRowError(t *testing.T) {
	r := require.New(t)

	db, mock, err := sqlmock.New()
	r.NoError(err)

	expected := errors.New("connection reset")
	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2)).RowError(1, expected),
	)

	driver := builders.NewDriver(builders.NewClient(db), builders.NewDialect("mock"))

	stream, err := driver.Query(context.Background(), "SELECT id FROM users")
	r.NoError(err)

	result := new(core.Result)
	r.ErrorIs(result.SetIter(stream), expected)
}
