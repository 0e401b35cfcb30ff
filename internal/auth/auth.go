// Package auth is the login collaborator: signup, email+password login,
// and cookie-backed sessions stored in the sessions table.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"blog/internal/models"
	"blog/internal/repo"
)

var (
	ErrEmailTaken    = errors.New("email already taken")
	ErrUsernameTaken = errors.New("username already taken")
	ErrInvalidLogin  = errors.New("invalid email or password")
	ErrNoSession     = errors.New("session not found")
)

// ----------------------------
// Context helpers (for middleware and handlers)
// ----------------------------

type ctxKeyUserID struct{}

func WithUserID(ctx context.Context, uid int64) context.Context {
	return context.WithValue(ctx, ctxKeyUserID{}, uid)
}

func UserIDFrom(ctx context.Context) (int64, bool) {
	v := ctx.Value(ctxKeyUserID{})
	if v == nil {
		return 0, false
	}
	id, _ := v.(int64)
	return id, id != 0
}

// ----------------------------
// Signup
// ----------------------------

func Signup(ctx context.Context, db *sql.DB, email, username, password string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	username = strings.TrimSpace(username)

	if email == "" || username == "" || password == "" {
		return errors.New("email, username and password are required")
	}
	if len(password) < 6 {
		return errors.New("password must be at least 6 characters")
	}

	users := repo.Users{DB: db}
	if _, err := users.FindByEmail(ctx, email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	if _, err := users.FindByUsername(ctx, username); err == nil {
		return ErrUsernameTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	err = users.Insert(ctx, &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
	})
	// Race against the UNIQUE constraints:
	if isUniqueErr(err, "email") {
		return ErrEmailTaken
	}
	if isUniqueErr(err, "username") {
		return ErrUsernameTaken
	}
	return err
}

// ----------------------------
// Login (creates a uuid session with an expiry)
// ----------------------------

func Login(ctx context.Context, db *sql.DB, email, password string, lifetime time.Duration) (string, int64, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	u, err := repo.Users{DB: db}.FindByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return "", 0, ErrInvalidLogin
	}
	if err != nil {
		return "", 0, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", 0, ErrInvalidLogin
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, err
	}
	defer tx.Rollback()

	// One live session per user.
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, u.ID); err != nil {
		return "", 0, err
	}

	sid := uuid.New().String()
	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `
        INSERT INTO sessions (id, user_id, expires_at, created_at)
        VALUES ($1, $2, $3, $4)
    `, sid, u.ID, now.Add(lifetime), now); err != nil {
		return "", 0, err
	}

	if err := tx.Commit(); err != nil {
		return "", 0, err
	}
	return sid, u.ID, nil
}

// ----------------------------
// Logout (drops the session row)
// ----------------------------

func Logout(ctx context.Context, db *sql.DB, sid string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, sid)
	return err
}

// ----------------------------
// UserFromSession: validates the cookie value, returns (uid, expires)
// ----------------------------

func UserFromSession(ctx context.Context, db *sql.DB, sid string) (int64, time.Time, error) {
	var uid int64
	var exp time.Time

	err := db.QueryRowContext(ctx,
		`SELECT user_id, expires_at FROM sessions WHERE id = $1`, sid,
	).Scan(&uid, &exp)

	if err == sql.ErrNoRows {
		return 0, time.Time{}, ErrNoSession
	}
	if err != nil {
		return 0, time.Time{}, err
	}
	return uid, exp, nil
}

func isUniqueErr(err error, col string) bool {
	// sqlite: "UNIQUE constraint failed: users.email"
	// postgres: `duplicate key value violates unique constraint "users_email_key"`
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return (strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "duplicate key value")) && strings.Contains(msg, col)
}
