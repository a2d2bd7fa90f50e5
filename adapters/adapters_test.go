package adapters

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlio/sqlio/core"
	"github.com/sqlio/sqlio/core/mock"
)

func TestDialect(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain scheme", input: "sqlite:///users.db", want: "sqlite"},
		{name: "driver suffix is dropped", input: "postgresql+psycopg2://u:p@localhost/db", want: "postgresql"},
		{name: "scheme is lower-cased", input: "MySQL://localhost/db", want: "mysql"},
		{name: "missing scheme", input: "/tmp/users.db", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Dialect(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewConnFactory_UnsupportedDialect(t *testing.T) {
	_, err := NewConnFactory("nosuchdb://localhost/db")
	require.ErrorIs(t, err, ErrUnsupportedTypeAlias)
	require.ErrorContains(t, err, `"nosuchdb"`)
}

func TestNewConnFactory_RegisteredAdapter(t *testing.T) {
	r := require.New(t)

	adapter := mock.NewAdapter(mock.NewRows(0, 3))
	r.NoError(new(Mux).AddAdapter("mockdb", adapter))
	t.Cleanup(func() { delete(registeredAdapters, "mockdb") })

	factory, err := NewConnFactory("mockdb://anything")
	r.NoError(err)

	// every call opens a new connection
	for i := 0; i < 3; i++ {
		d, err := factory(context.Background())
		r.NoError(err)
		d.Close()
	}
	r.Equal(3, adapter.Opened())
}

func TestNewConnFactory_SQLite(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "factory.db")
	seed(t, path, "CREATE TABLE users (id INTEGER, name TEXT)", "INSERT INTO users VALUES (1, 'john'), (2, 'jane')")

	factory, err := NewConnFactory("sqlite:///"+path, WithParam("_pragma", "busy_timeout(5000)"), WithMaxOpenConns(2))
	r.NoError(err)

	driver, err := factory(ctx)
	r.NoError(err)
	defer driver.Close()

	r.Equal("sqlite", driver.Dialect().Name())

	stream, err := driver.Query(ctx, driver.Dialect().Select("SELECT * FROM users", []string{"name"}, "id > 1", -1))
	r.NoError(err)

	result := new(core.Result)
	r.NoError(result.SetIter(stream))
	r.Equal([]core.Row{{"jane"}}, result.AllRows())
}

func TestNewConnFactory_SQLiteMissingDirectory(t *testing.T) {
	factory, err := NewConnFactory("sqlite:///" + filepath.Join(t.TempDir(), "missing", "dir", "x.db"))
	require.NoError(t, err)

	_, err = factory(context.Background())
	require.Error(t, err)
}

func seed(t *testing.T, path string, statements ...string) {
	t.Helper()

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	for _, stmt := range statements {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
}
