package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/lyhengdev/adtrack/internal/cache"
	"github.com/lyhengdev/adtrack/internal/config"
	"github.com/lyhengdev/adtrack/internal/httpserver"
	"github.com/lyhengdev/adtrack/internal/store"
)

// main boots the service: config → DB → schema → optional Redis → HTTP server.
func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	// Load runtime config from environment (DB_URL, API_KEYS, REDIS_ADDR).
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// Connect to durable storage (Postgres) using a connection pool.
	db, err := store.NewPostgresStore(cfg.DBURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	// Ensure required tables/indexes exist so `docker compose up --build` is enough.
	if err := db.EnsureSchema(); err != nil {
		log.Fatal(err)
	}

	// The Redis dedup guard is optional; the DB unique constraint alone
	// still guarantees at-most-once recording.
	var guard *cache.Client
	if cfg.RedisAddr != "" {
		guard, err = cache.New(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Fatal(err)
		}
		log.Println("dedup guard connected to redis at " + cfg.RedisAddr)
	}

	// Build HTTP router (public health + authenticated APIs).
	router := httpserver.NewRouter(cfg, db, guard)

	log.Println("server started on :" + cfg.Port)
	log.Fatal(router.Run(":" + cfg.Port))
}
