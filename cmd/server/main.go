package main

import (
	"log"
	"net/http"

	"blog/internal/app"
	"blog/internal/cache"
	"blog/internal/db"
	httpx "blog/internal/http"
)

func main() {
	cfg := app.LoadConfig()

	d, err := db.Open(cfg.DatabaseURL)
	app.Must(err)
	app.Must(db.Migrate(d, db.SchemaFile(cfg.DatabaseURL)))

	var c cache.Cache = cache.NewMemory()
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedis(cfg.RedisURL)
		app.Must(err)
		c = rc
	}

	srv := httpx.NewServer(d, c, cfg)
	log.Printf("listening on %s", cfg.Addr)
	app.Must(http.ListenAndServe(cfg.Addr, httpx.WithAccessLog(httpx.WithTimeout(srv))))
}
