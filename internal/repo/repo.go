// Package repo holds one small repository per entity, all working against a
// shared *sql.DB. Queries use $1-style placeholders, which both the pgx and
// sqlite3 drivers accept.
package repo

import "errors"

var ErrNotFound = errors.New("not found")
