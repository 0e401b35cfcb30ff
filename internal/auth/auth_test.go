package auth

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog/internal/db"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	require.NoError(t, db.Migrate(d, "../../schema.sql"))
	return d
}

func TestSignupAndLogin(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	require.NoError(t, Signup(ctx, d, "alice@example.com", "alice", "secret1"))

	sid, uid, err := Login(ctx, d, "alice@example.com", "secret1", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, sid)
	require.NotZero(t, uid)

	got, exp, err := UserFromSession(ctx, d, sid)
	require.NoError(t, err)
	assert.Equal(t, uid, got)
	assert.True(t, exp.After(time.Now()))
}

func TestSignup_Duplicates(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	require.NoError(t, Signup(ctx, d, "alice@example.com", "alice", "secret1"))

	err := Signup(ctx, d, "alice@example.com", "other", "secret1")
	assert.ErrorIs(t, err, ErrEmailTaken)

	err = Signup(ctx, d, "other@example.com", "alice", "secret1")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestLogin_BadCredentials(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	require.NoError(t, Signup(ctx, d, "alice@example.com", "alice", "secret1"))

	_, _, err := Login(ctx, d, "alice@example.com", "wrong", time.Hour)
	assert.ErrorIs(t, err, ErrInvalidLogin)

	_, _, err = Login(ctx, d, "nobody@example.com", "secret1", time.Hour)
	assert.ErrorIs(t, err, ErrInvalidLogin)
}

func TestLogout_DropsSession(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	require.NoError(t, Signup(ctx, d, "alice@example.com", "alice", "secret1"))
	sid, _, err := Login(ctx, d, "alice@example.com", "secret1", time.Hour)
	require.NoError(t, err)

	require.NoError(t, Logout(ctx, d, sid))

	_, _, err = UserFromSession(ctx, d, sid)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestUserIDContext(t *testing.T) {
	ctx := context.Background()

	_, ok := UserIDFrom(ctx)
	assert.False(t, ok)

	ctx = WithUserID(ctx, 7)
	uid, ok := UserIDFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(7), uid)
}
