package main

import (
	"context"
	"flag"
	"os"

	log "github.com/sirupsen/logrus"

	"servora-system/config"
	"servora-system/internal/database"
	"servora-system/internal/inventory"
	"servora-system/internal/seed"
)

func main() {
	file := flag.String("file", "seed.yaml", "YAML seed file")
	flag.Parse()

	cfg := config.LoadConfig()
	logger := config.NewLogger(cfg.Log)

	f, err := os.Open(*file)
	if err != nil {
		logger.Fatalf("Failed to open seed file: %v", err)
	}
	defer f.Close()

	data, err := seed.Load(f)
	if err != nil {
		logger.Fatalf("Failed to parse seed file: %v", err)
	}

	db, err := database.NewConnection(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		logger.Fatalf("Failed to connect to db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	seeder := seed.NewSeeder(db, inventory.NewLedger(db, logger), logger)
	res, err := seeder.Apply(context.Background(), data)
	if err != nil {
		logger.Fatalf("Seeding failed: %v", err)
	}

	logger.WithFields(log.Fields{
		"file":          *file,
		"restaurant_id": res.RestaurantID,
	}).Info("database seeded")
}
