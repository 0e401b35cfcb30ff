package app

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr            string
	DatabaseURL     string
	RedisURL        string
	MediaDir        string
	PostsPerPage    int
	CacheTTL        time.Duration
	SessionLifetime time.Duration
}

// fileConfig is the YAML shape; durations come in as strings ("20s", "24h").
type fileConfig struct {
	Addr            string `yaml:"addr"`
	DatabaseURL     string `yaml:"database_url"`
	RedisURL        string `yaml:"redis_url"`
	MediaDir        string `yaml:"media_dir"`
	PostsPerPage    int    `yaml:"posts_per_page"`
	CacheTTL        string `yaml:"cache_ttl"`
	SessionLifetime string `yaml:"session_lifetime"`
}

// LoadConfig starts from defaults, overlays the optional YAML file named by
// CONFIG_FILE, then lets individual environment variables win.
func LoadConfig() Config {
	cfg := Config{
		Addr:            ":8080",
		DatabaseURL:     "./blog.db",
		MediaDir:        "media",
		PostsPerPage:    10,
		CacheTTL:        20 * time.Second,
		SessionLifetime: 24 * time.Hour,
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("config: read %s: %v", path, err)
		}
		var fc fileConfig
		if err := yaml.Unmarshal(b, &fc); err != nil {
			log.Fatalf("config: parse %s: %v", path, err)
		}
		if fc.Addr != "" {
			cfg.Addr = fc.Addr
		}
		if fc.DatabaseURL != "" {
			cfg.DatabaseURL = fc.DatabaseURL
		}
		if fc.RedisURL != "" {
			cfg.RedisURL = fc.RedisURL
		}
		if fc.MediaDir != "" {
			cfg.MediaDir = fc.MediaDir
		}
		if fc.PostsPerPage > 0 {
			cfg.PostsPerPage = fc.PostsPerPage
		}
		if fc.CacheTTL != "" {
			d, err := time.ParseDuration(fc.CacheTTL)
			if err != nil {
				log.Fatalf("config: cache_ttl: %v", err)
			}
			cfg.CacheTTL = d
		}
		if fc.SessionLifetime != "" {
			d, err := time.ParseDuration(fc.SessionLifetime)
			if err != nil {
				log.Fatalf("config: session_lifetime: %v", err)
			}
			cfg.SessionLifetime = d
		}
	}

	cfg.Addr = getenv("ADDR", cfg.Addr)
	cfg.DatabaseURL = getenv("DATABASE_URL", cfg.DatabaseURL)
	cfg.RedisURL = getenv("REDIS_URL", cfg.RedisURL)
	cfg.MediaDir = getenv("MEDIA_DIR", cfg.MediaDir)
	if v := os.Getenv("POSTS_PER_PAGE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PostsPerPage = n
		}
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.CacheTTL = d
		}
	}
	if v := os.Getenv("SESSION_LIFETIME"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.SessionLifetime = d
		}
	}
	return cfg
}

func getenv(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func Must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
