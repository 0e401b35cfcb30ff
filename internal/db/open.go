package db

import (
	"database/sql"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// isPostgres reports whether the DSN is a Postgres URL.
func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// SchemaFile names the migration file matching the DSN's dialect.
func SchemaFile(dsn string) string {
	if isPostgres(dsn) {
		return "schema_postgres.sql"
	}
	return "schema.sql"
}

// Open picks the driver from the DSN: postgres:// URLs go through pgx,
// anything else is treated as a SQLite path.
func Open(dsn string) (*sql.DB, error) {
	if isPostgres(dsn) {
		return sql.Open("pgx", dsn)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	// Reduce contention and enforce referential integrity.
	_, _ = db.Exec(`PRAGMA journal_mode=WAL;`)
	_, _ = db.Exec(`PRAGMA busy_timeout=3000;`)
	_, _ = db.Exec(`PRAGMA foreign_keys=ON;`)

	return db, nil
}
