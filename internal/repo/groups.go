package repo

import (
	"context"
	"database/sql"

	"blog/internal/models"
)

type Groups struct {
	DB *sql.DB
}

func (r Groups) FindByID(ctx context.Context, id int64) (models.Group, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		`SELECT id, title, slug, description FROM "groups" WHERE id = $1`, id))
}

func (r Groups) FindBySlug(ctx context.Context, slug string) (models.Group, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		`SELECT id, title, slug, description FROM "groups" WHERE slug = $1`, slug))
}

func (r Groups) All(ctx context.Context) ([]models.Group, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, title, slug, description FROM "groups" ORDER BY title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gs []models.Group
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Title, &g.Slug, &g.Description); err != nil {
			return nil, err
		}
		gs = append(gs, g)
	}
	return gs, rows.Err()
}

func (r Groups) Insert(ctx context.Context, g *models.Group) error {
	return r.DB.QueryRowContext(ctx,
		`INSERT INTO "groups" (title, slug, description) VALUES ($1, $2, $3) RETURNING id`,
		g.Title, g.Slug, g.Description,
	).Scan(&g.ID)
}

func (r Groups) Update(ctx context.Context, g models.Group) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE "groups" SET title = $1, slug = $2, description = $3 WHERE id = $4`,
		g.Title, g.Slug, g.Description, g.ID)
	return err
}

func (r Groups) scanOne(row *sql.Row) (models.Group, error) {
	var g models.Group
	err := row.Scan(&g.ID, &g.Title, &g.Slug, &g.Description)
	if err == sql.ErrNoRows {
		return models.Group{}, ErrNotFound
	}
	return g, err
}
