package repo

import (
	"context"
	"database/sql"
	"time"

	"blog/internal/models"
)

type Users struct {
	DB *sql.DB
}

func (r Users) FindByID(ctx context.Context, id int64) (models.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		`SELECT id, email, username, password_hash, created_at FROM users WHERE id = $1`, id))
}

func (r Users) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		`SELECT id, email, username, password_hash, created_at FROM users WHERE username = $1`, username))
}

func (r Users) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		`SELECT id, email, username, password_hash, created_at FROM users WHERE email = $1`, email))
}

func (r Users) Insert(ctx context.Context, u *models.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	return r.DB.QueryRowContext(ctx,
		`INSERT INTO users (email, username, password_hash, created_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		u.Email, u.Username, u.PasswordHash, u.CreatedAt,
	).Scan(&u.ID)
}

func (r Users) scanOne(row *sql.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return models.User{}, ErrNotFound
	}
	return u, err
}
