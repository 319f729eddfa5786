package main

import (
	"flag"
	"os"

	"github.com/joho/godotenv"

	"pickYourSocksAPI/internal/logging"
	"pickYourSocksAPI/internal/storage/postgres"
)

func main() {
	dir := flag.String("dir", "migrations", "directory holding *.up.sql / *.down.sql")
	direction := flag.String("direction", "up", "up or down (one step)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		logging.Log.Info("No .env file found")
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logging.Log.Fatal("DATABASE_URL environment variable is not set")
	}

	version, err := postgres.Migrate(dsn, *dir, *direction)
	if err != nil {
		logging.Log.WithError(err).Fatal("Migration failed")
	}
	logging.Log.WithField("version", version).Infof("Migrations %s complete", *direction)
}
