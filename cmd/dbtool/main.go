package main

import (
	"context"
	"database/sql"
	"fmt"
	"gig-finder-service/internal/adapters/cache"
	"gig-finder-service/internal/adapters/geocode"
	"gig-finder-service/internal/adapters/repositories"
	"gig-finder-service/internal/config"
	"gig-finder-service/internal/platform/db"
	"gig-finder-service/internal/platform/obs"
	"gig-finder-service/internal/ports"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// dbtool prepares a Postgres database: schema first, then the JSON seed.
func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found (using environment variables)")
	}

	obs.NewLogger(os.Stderr, config.Get("LOG_LEVEL", "info"))

	databaseURL := config.Get("DATABASE_URL", "")
	if databaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	conn, err := db.Open(databaseURL)
	if err != nil {
		slog.Error("open database", "err", err)
		os.Exit(1)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	seedPath := config.Get("SEED_PATH", "data/seeds/gigs.json")
	if err := initAndSeed(ctx, conn, seedPath, config.Get("ORS_API_KEY", "")); err != nil {
		slog.Error("dbtool failed", "err", err)
		os.Exit(1)
	}
}

func initAndSeed(ctx context.Context, conn *sql.DB, seedPath, orsKey string) error {
	slog.Info("initializing database schema")
	if err := repositories.InitPostgresSchema(ctx, conn); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	slog.Info("schema ready")

	var geocoder ports.Geocoder
	if orsKey != "" {
		ors, err := geocode.NewORSGeocoder(orsKey)
		if err != nil {
			return err
		}
		cached, err := geocode.NewCachedGeocoder(ors, cache.NewSQLGeocodeCache(conn))
		if err != nil {
			return err
		}
		geocoder = cached
	}

	slog.Info("seeding database", "path", seedPath)
	if err := repositories.SeedPostgresFromJSON(ctx, conn, seedPath, geocoder); err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	slog.Info("seeding complete")

	return nil
}
