package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range []string{"CONFIG_FILE", "ADDR", "DATABASE_URL", "REDIS_URL",
		"MEDIA_DIR", "POSTS_PER_PAGE", "CACHE_TTL", "SESSION_LIFETIME"} {
		t.Setenv(k, "")
	}

	cfg := LoadConfig()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "./blog.db", cfg.DatabaseURL)
	assert.Equal(t, 10, cfg.PostsPerPage)
	assert.Equal(t, 20*time.Second, cfg.CacheTTL)
	assert.Equal(t, 24*time.Hour, cfg.SessionLifetime)
}

func TestLoadConfig_FileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9090"
posts_per_page: 5
cache_ttl: 45s
`), 0o644))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("ADDR", ":7070") // env beats the file

	cfg := LoadConfig()
	assert.Equal(t, ":7070", cfg.Addr)
	assert.Equal(t, 5, cfg.PostsPerPage)
	assert.Equal(t, 45*time.Second, cfg.CacheTTL)
}
