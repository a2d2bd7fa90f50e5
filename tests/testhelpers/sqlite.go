package testhelpers

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"path/filepath"

	"github.com/sqlio/sqlio/adapters"
	"github.com/sqlio/sqlio/core"
)

type SQLiteDatabase struct {
	ConnURL string
	Conn    core.ConnFactory
	Path    string
}

// NewSQLiteDatabase creates a database file in dir (usually the suite temp
// dir) seeded with testdata/sqlite_seed.sql.
func NewSQLiteDatabase(ctx context.Context, dir string, opts ...adapters.ConnOption) (*SQLiteDatabase, error) {
	seedFile, err := GetTestDataFile("sqlite_seed.sql")
	if err != nil {
		return nil, err
	}
	defer seedFile.Close()

	seed, err := io.ReadAll(seedFile)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, "test.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, string(seed)); err != nil {
		return nil, fmt.Errorf("seeding %s: %w", path, err)
	}

	connURL := "sqlite:///" + path
	conn, err := adapters.NewConnFactory(connURL, opts...)
	if err != nil {
		return nil, err
	}

	return &SQLiteDatabase{
		ConnURL: connURL,
		Conn:    conn,
		Path:    path,
	}, nil
}
