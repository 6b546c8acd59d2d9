package test

import (
	"database/sql"
	"log"

	_ "github.com/mattn/go-sqlite3"

	"taskmanager/internal/adapter/database/sqlite"
)

// InitTestDB returns a migrated in-memory database. The pool is pinned to a
// single connection because every sqlite memory connection is its own db.
func InitTestDB() *sqlite.DB {
	db, err := sql.Open("sqlite3", ":memory:")

	if err != nil {
		log.Fatal(err)
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if _, err = db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		log.Fatal(err)
	}

	if err := sqlite.RunMigrations(db); err != nil {
		log.Fatal(err)
	}

	return sqlite.Wrap(db)
}
