package feed

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"blog/internal/db"
	"blog/internal/models"
	"blog/internal/repo"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	require.NoError(t, db.Migrate(d, "../../schema.sql"))
	return d
}

func newUser(t *testing.T, d *sql.DB, username string) models.User {
	t.Helper()
	u := models.User{Email: username + "@example.com", Username: username, PasswordHash: "x"}
	require.NoError(t, repo.Users{DB: d}.Insert(context.Background(), &u))
	return u
}

func newGroup(t *testing.T, d *sql.DB, slug string) models.Group {
	t.Helper()
	g := models.Group{Title: slug, Slug: slug, Description: "about " + slug}
	require.NoError(t, repo.Groups{DB: d}.Insert(context.Background(), &g))
	return g
}

func newPost(t *testing.T, d *sql.DB, author models.User, groupID int64, text string, at time.Time) models.Post {
	t.Helper()
	p := models.Post{AuthorID: author.ID, GroupID: groupID, Text: text, CreatedAt: at}
	require.NoError(t, repo.Posts{DB: d}.Insert(context.Background(), &p))
	return p
}

func requireNewestFirst(t *testing.T, posts []models.Post) {
	t.Helper()
	for i := 1; i < len(posts); i++ {
		a, b := posts[i-1], posts[i]
		require.False(t, a.CreatedAt.Before(b.CreatedAt),
			"posts out of order at %d: %v before %v", i, a.CreatedAt, b.CreatedAt)
	}
}

func TestGlobal_NewestFirst(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	alice := newUser(t, d, "alice")
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	// Inserted oldest first; the feed must come back reversed.
	for i := 0; i < 7; i++ {
		newPost(t, d, alice, 0, "post", base.Add(time.Duration(i)*time.Minute))
	}

	posts, err := (&Service{DB: d}).Global(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 7)
	requireNewestFirst(t, posts)
	require.True(t, posts[0].CreatedAt.Equal(base.Add(6*time.Minute)))
}

func TestByGroup_FiltersAndOrders(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	alice := newUser(t, d, "alice")
	cats := newGroup(t, d, "cats")
	dogs := newGroup(t, d, "dogs")
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	newPost(t, d, alice, cats.ID, "cat one", base)
	newPost(t, d, alice, dogs.ID, "dog one", base.Add(time.Minute))
	newPost(t, d, alice, cats.ID, "cat two", base.Add(2*time.Minute))
	newPost(t, d, alice, 0, "no group", base.Add(3*time.Minute))

	posts, err := (&Service{DB: d}).ByGroup(ctx, cats.ID)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	requireNewestFirst(t, posts)
	require.Equal(t, "cat two", posts[0].Text)
	require.Equal(t, "cats", posts[0].Group)
	require.Equal(t, "cats", posts[0].GroupSlug)
}

func TestByAuthor_Filters(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	alice := newUser(t, d, "alice")
	bob := newUser(t, d, "bob")
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	newPost(t, d, alice, 0, "by alice", base)
	newPost(t, d, bob, 0, "by bob", base.Add(time.Minute))

	posts, err := (&Service{DB: d}).ByAuthor(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, "by alice", posts[0].Text)
	require.Equal(t, "alice", posts[0].Author)
}

func TestFollowing_OnlyFollowedAuthors(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	alice := newUser(t, d, "alice")
	bob := newUser(t, d, "bob")
	carol := newUser(t, d, "carol")
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	newPost(t, d, bob, 0, "from bob", base)
	newPost(t, d, carol, 0, "from carol", base.Add(time.Minute))
	newPost(t, d, alice, 0, "own post", base.Add(2*time.Minute))

	follows := repo.Follows{DB: d}
	require.NoError(t, follows.Create(ctx, alice.ID, bob.ID))

	svc := &Service{DB: d}
	posts, err := svc.Following(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, "from bob", posts[0].Text)

	// Following more authors widens the feed; order still newest first.
	require.NoError(t, follows.Create(ctx, alice.ID, carol.ID))
	posts, err = svc.Following(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	requireNewestFirst(t, posts)
	require.Equal(t, "from carol", posts[0].Text)

	// Unfollow shrinks it again.
	require.NoError(t, follows.Delete(ctx, alice.ID, bob.ID))
	posts, err = svc.Following(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, "from carol", posts[0].Text)
}

func TestTimestampTies_DeterministicOrder(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	alice := newUser(t, d, "alice")
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	first := newPost(t, d, alice, 0, "first", at)
	second := newPost(t, d, alice, 0, "second", at)

	posts, err := (&Service{DB: d}).Global(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	// Same timestamp: the higher id (later insert) wins.
	require.Equal(t, second.ID, posts[0].ID)
	require.Equal(t, first.ID, posts[1].ID)
}
