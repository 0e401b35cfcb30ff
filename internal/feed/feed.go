// Package feed assembles the four post feeds. Every feed is ordered newest
// first, with the row id as a tie-break so the order is a deterministic
// total order even when timestamps collide.
package feed

import (
	"context"
	"database/sql"

	"blog/internal/models"
)

type Service struct {
	DB *sql.DB
}

const selectPosts = `
SELECT p.id, p.author_id, p.group_id, p.text, p.image, p.created_at,
       u.username, COALESCE(g.title, ''), COALESCE(g.slug, '')
  FROM posts p
  JOIN users u ON u.id = p.author_id
  LEFT JOIN "groups" g ON g.id = p.group_id
`

const orderNewestFirst = ` ORDER BY p.created_at DESC, p.id DESC`

// Global returns every post.
func (s *Service) Global(ctx context.Context) ([]models.Post, error) {
	return s.query(ctx, selectPosts+orderNewestFirst)
}

// ByGroup returns the posts filed under one group.
func (s *Service) ByGroup(ctx context.Context, groupID int64) ([]models.Post, error) {
	return s.query(ctx, selectPosts+` WHERE p.group_id = $1`+orderNewestFirst, groupID)
}

// ByAuthor returns one author's posts.
func (s *Service) ByAuthor(ctx context.Context, authorID int64) ([]models.Post, error) {
	return s.query(ctx, selectPosts+` WHERE p.author_id = $1`+orderNewestFirst, authorID)
}

// Following returns posts by every author the user follows.
func (s *Service) Following(ctx context.Context, userID int64) ([]models.Post, error) {
	return s.query(ctx, selectPosts+`
  JOIN follows f ON f.author_id = p.author_id
 WHERE f.user_id = $1`+orderNewestFirst, userID)
}

func (s *Service) query(ctx context.Context, q string, args ...any) ([]models.Post, error) {
	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		var p models.Post
		var gid sql.NullInt64
		if err := rows.Scan(&p.ID, &p.AuthorID, &gid, &p.Text, &p.Image, &p.CreatedAt,
			&p.Author, &p.Group, &p.GroupSlug); err != nil {
			return nil, err
		}
		if gid.Valid {
			p.GroupID = gid.Int64
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}
