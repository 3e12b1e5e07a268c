package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"gig-finder-service/internal/ports"
)

// Initialize the Postgres database schema.
func InitPostgresSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init postgres schema: DB is nil")
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			role TEXT NOT NULL,
			genre TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS gigs (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			lat DOUBLE PRECISION NOT NULL,
			lon DOUBLE PRECISION NOT NULL,
			starts_at TIMESTAMPTZ NOT NULL,
			venue_address TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			organizer_id TEXT REFERENCES users(id),
			cover_image_url TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS geocode_cache (
			address TEXT PRIMARY KEY,
			lon DOUBLE PRECISION NOT NULL,
			lat DOUBLE PRECISION NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_gigs_starts_at ON gigs(starts_at);`,
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init postgres schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init postgres schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init postgres schema: commit tx: %w", err)
	}

	return nil
}

// Populate the Postgres database with users and gigs from a JSON file.
func SeedPostgresFromJSON(ctx context.Context, db *sql.DB, jsonPath string, geocoder ports.Geocoder) error {
	data, err := loadSeed(ctx, jsonPath, geocoder)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed gigs: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, u := range data.Users {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO users (id, name, role, genre)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
			role = EXCLUDED.role,
			genre = EXCLUDED.genre;
		`, u.ID, u.Name, u.Role, u.Genre); err != nil {
			return fmt.Errorf("seed users: insert id=%s: %w", u.ID, err)
		}
	}

	for _, g := range data.Gigs {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO gigs (id, title, lat, lon, starts_at, venue_address, description, organizer_id, cover_image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title,
			lat = EXCLUDED.lat,
			lon = EXCLUDED.lon,
			starts_at = EXCLUDED.starts_at,
			venue_address = EXCLUDED.venue_address,
			description = EXCLUDED.description,
			organizer_id = EXCLUDED.organizer_id,
			cover_image_url = EXCLUDED.cover_image_url;
		`,
			g.ID, g.Title, g.Location.Lat, g.Location.Lon, g.StartsAt,
			g.VenueAddress, g.Description, nullIfEmpty(g.OrganizerID), g.CoverImageURL,
		); err != nil {
			return fmt.Errorf("seed gigs: insert id=%s: %w", g.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed gigs: commit tx: %w", err)
	}

	return nil
}
