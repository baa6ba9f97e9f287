package main

import (
	"context"
	"database/sql"
	"flag"

	"papertalk-backend/config"
	"papertalk-backend/logger"
	"papertalk-backend/migrations"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	status := flag.Bool("status", false, "print migration status instead of applying")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	defer log.Sync()

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		log.Fatal("failed to open database", "error", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal("failed to connect to database", "error", err)
	}

	if *status {
		if err := migrations.Status(ctx, db); err != nil {
			log.Fatal("failed to read migration status", "error", err)
		}
		return
	}

	if err := migrations.Up(ctx, db); err != nil {
		log.Fatal("failed to create schema", "error", err)
	}
	log.Info("schema is up to date")
}
