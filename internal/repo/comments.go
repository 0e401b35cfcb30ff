package repo

import (
	"context"
	"database/sql"
	"time"

	"blog/internal/models"
)

type Comments struct {
	DB *sql.DB
}

func (r Comments) Insert(ctx context.Context, c *models.Comment) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	return r.DB.QueryRowContext(ctx,
		`INSERT INTO comments (post_id, author_id, text, created_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		c.PostID, c.AuthorID, c.Text, c.CreatedAt,
	).Scan(&c.ID)
}

// ByPost returns a post's comments oldest first, the order they read in.
func (r Comments) ByPost(ctx context.Context, postID int64) ([]models.Comment, error) {
	rows, err := r.DB.QueryContext(ctx, `
SELECT c.id, c.post_id, c.author_id, c.text, c.created_at, u.username
  FROM comments c
  JOIN users u ON u.id = c.author_id
 WHERE c.post_id = $1
 ORDER BY c.created_at ASC, c.id ASC
`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cs []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Text, &c.CreatedAt, &c.Author); err != nil {
			return nil, err
		}
		cs = append(cs, c)
	}
	return cs, rows.Err()
}

func (r Comments) CountByPost(ctx context.Context, postID int64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM comments WHERE post_id = $1`, postID).Scan(&n)
	return n, err
}
