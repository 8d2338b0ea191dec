package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"goxtab/adapters/api"
	"goxtab/adapters/postgres"
	"goxtab/internal/config"
	"goxtab/ports"
)

func main() {
	// Optional .env for local development
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var runs ports.RunRepository
	if cfg.Database.Enabled {
		db, err := postgres.Connect(cfg.Database.URL)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		runs = postgres.NewRunRepository(db)
	}

	server := api.NewServer(runs, cfg.Defaults)
	addr := ":" + cfg.Server.Port
	log.Printf("crosstab API listening on %s (run history: %v)", addr, cfg.Database.Enabled)
	if err := http.ListenAndServe(addr, server); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
