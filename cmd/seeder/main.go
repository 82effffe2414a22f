package main

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jcaplliure/EntrenadorBasket/internal/database"
	"github.com/jcaplliure/EntrenadorBasket/internal/siteconfig"
	"github.com/joho/godotenv"
)

// baseTags is the starting vocabulary of the drill library.
var baseTags = []string{"Tiro", "Entrada", "Pase", "Bote", "Defensa", "Rebote", "Físico", "Táctica"}

func main() {
	log.Info("Starting database seeder...")
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}
	dbName := os.Getenv("DB_NAME")
	primaryURL := os.Getenv("TURSO_PRIMARY_URL")
	if dbName == "" && primaryURL == "" {
		log.Fatal("Error: set DB_NAME or TURSO_PRIMARY_URL")
	}

	db, teardown, err := database.InitDB(dbName, primaryURL, os.Getenv("TURSO_AUTH_TOKEN"))
	if err != nil {
		log.Fatalf("Failed to open database: %s", err)
	}
	defer teardown()

	ctx := context.Background()
	startTime := time.Now()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %s", err)
	}
	inserted := 0
	for _, name := range baseTags {
		res, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO tags (name) VALUES (?)", name)
		if err != nil {
			tx.Rollback()
			log.Fatalf("Failed to insert tag %s: %s", name, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	if err := tx.Commit(); err != nil {
		log.Fatalf("Failed to commit transaction: %s", err)
	}
	log.Info("Ensured base tags exist", "inserted", inserted, "total", len(baseTags))

	seeded, err := siteconfig.New(db).SeedDefaults(ctx)
	if err != nil {
		log.Fatalf("Failed to seed site configuration: %s", err)
	}
	log.Info("Seeded site configuration", "inserted", seeded)

	log.Info("Seeding finished", "duration", time.Since(startTime))
}
