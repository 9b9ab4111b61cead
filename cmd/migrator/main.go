package main

import (
	"errors"
	"os"

	"aurora/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
)

// migrationsPath is relative to the repository root.
const migrationsPath = "file://db/migrations"

func main() {
	log := logger.New("migrator", os.Getenv("LOG_LEVEL"))

	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using environment variables")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	m, err := migrate.New(migrationsPath, databaseURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to create migrate instance")
	}
	defer m.Close()

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "up":
		log.Info("Running database migrations...")
		err = m.Up()
	case "down":
		log.Warn("Rolling back the last migration...")
		err = m.Steps(-1)
	case "version":
		version, dirty, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			log.Info("No migrations applied")
			return
		}
		if verr != nil {
			log.WithError(verr).Fatal("Failed to read migration version")
		}
		log.WithField("version", version).WithField("dirty", dirty).Info("Current migration version")
		return
	default:
		log.Fatalf("unknown command %q (expected up, down or version)", cmd)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		log.Info("Database already up to date")
		return
	}
	if err != nil {
		log.WithError(err).Fatal("Migration failed")
	}
	log.Info("Database migration completed successfully!")
}
