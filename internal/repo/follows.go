package repo

import (
	"context"
	"database/sql"
	"time"
)

type Follows struct {
	DB *sql.DB
}

// Create records a follow edge. Re-following is a no-op, not an error.
// Callers are expected to have refused self-follows already; the schema
// rejects them regardless.
func (r Follows) Create(ctx context.Context, userID, authorID int64) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO follows (user_id, author_id, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT DO NOTHING`,
		userID, authorID, time.Now().UTC())
	return err
}

// Delete removes the edge if present. Deleting a missing edge is a no-op.
func (r Follows) Delete(ctx context.Context, userID, authorID int64) error {
	_, err := r.DB.ExecContext(ctx,
		`DELETE FROM follows WHERE user_id = $1 AND author_id = $2`,
		userID, authorID)
	return err
}

func (r Follows) Exists(ctx context.Context, userID, authorID int64) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM follows WHERE user_id = $1 AND author_id = $2`,
		userID, authorID).Scan(&n)
	return n > 0, err
}

func (r Follows) CountFollowers(ctx context.Context, authorID int64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM follows WHERE author_id = $1`, authorID).Scan(&n)
	return n, err
}
