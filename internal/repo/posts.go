package repo

import (
	"context"
	"database/sql"
	"time"

	"blog/internal/models"
)

type Posts struct {
	DB *sql.DB
}

const postColumns = `
SELECT p.id, p.author_id, p.group_id, p.text, p.image, p.created_at,
       u.username, COALESCE(g.title, ''), COALESCE(g.slug, '')
  FROM posts p
  JOIN users u ON u.id = p.author_id
  LEFT JOIN "groups" g ON g.id = p.group_id
`

func (r Posts) FindByID(ctx context.Context, id int64) (models.Post, error) {
	row := r.DB.QueryRowContext(ctx, postColumns+` WHERE p.id = $1`, id)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return models.Post{}, ErrNotFound
	}
	return p, err
}

// Insert persists a new post; author and creation time are fixed from here on.
func (r Posts) Insert(ctx context.Context, p *models.Post) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	return r.DB.QueryRowContext(ctx,
		`INSERT INTO posts (author_id, group_id, text, image, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		p.AuthorID, nullableID(p.GroupID), p.Text, p.Image, p.CreatedAt,
	).Scan(&p.ID)
}

// Update touches text, group and image only. Author and created_at are
// deliberately absent from the statement.
func (r Posts) Update(ctx context.Context, id int64, text string, groupID int64, image string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE posts SET text = $1, group_id = $2, image = $3 WHERE id = $4`,
		text, nullableID(groupID), image, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (models.Post, error) {
	var p models.Post
	var gid sql.NullInt64
	err := row.Scan(&p.ID, &p.AuthorID, &gid, &p.Text, &p.Image, &p.CreatedAt,
		&p.Author, &p.Group, &p.GroupSlug)
	if gid.Valid {
		p.GroupID = gid.Int64
	}
	return p, err
}

func nullableID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}
