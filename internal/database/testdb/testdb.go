// Package testdb provides an in-memory SQLite database with the application
// schema for repository and end-to-end tests.
package testdb

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/redmonkez12/todos-api/internal/database"
)

// New opens a fresh database and creates the users and todos tables.
func New(t testing.TB) *bun.DB {
	t.Helper()

	sqlDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)

	db := bun.NewDB(sqlDB, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	if _, err := db.NewCreateTable().Model((*database.User)(nil)).Exec(ctx); err != nil {
		t.Fatalf("create users table: %v", err)
	}
	_, err = db.NewCreateTable().
		Model((*database.Todo)(nil)).
		ForeignKey(`("owner_id") REFERENCES "users" ("id") ON DELETE CASCADE`).
		Exec(ctx)
	if err != nil {
		t.Fatalf("create todos table: %v", err)
	}

	return db
}
