package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"gig-finder-service/internal/ports"
	"time"
)

// Initialize the SQLite database schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createUsersQuery := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		role TEXT NOT NULL,
		genre TEXT NOT NULL DEFAULT ''
	);
	`

	createGigsQuery := `
	CREATE TABLE IF NOT EXISTS gigs (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		lat REAL NOT NULL,
		lon REAL NOT NULL,
		starts_at TEXT NOT NULL,
		venue_address TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		organizer_id TEXT REFERENCES users(id),
		cover_image_url TEXT NOT NULL DEFAULT ''
	);
	`

	createGeocodeCacheQuery := `
	CREATE TABLE IF NOT EXISTS geocode_cache (
        address TEXT PRIMARY KEY,
        lon REAL NOT NULL,
        lat REAL NOT NULL
    );
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_gigs_starts_at
    ON gigs(starts_at);
	`

	statements := []string{
		createUsersQuery,
		createGigsQuery,
		createGeocodeCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// Populate the SQLite database with users and gigs from a JSON file.
func SeedFromJSON(ctx context.Context, db *sql.DB, jsonPath string, geocoder ports.Geocoder) error {
	data, err := loadSeed(ctx, jsonPath, geocoder)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed gigs: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	userStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO users (
		id,
		name,
		role,
		genre
	)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE
	SET name = excluded.name,
		role = excluded.role,
		genre = excluded.genre;
	`)
	if err != nil {
		return fmt.Errorf("seed users: prepare insert: %w", err)
	}
	defer userStmt.Close()

	for _, u := range data.Users {
		if _, err := userStmt.ExecContext(ctx, u.ID, u.Name, u.Role, u.Genre); err != nil {
			return fmt.Errorf("seed users: insert id=%s: %w", u.ID, err)
		}
	}

	gigStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO gigs (
		id,
		title,
		lat,
		lon,
		starts_at,
		venue_address,
		description,
		organizer_id,
		cover_image_url
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE
	SET title = excluded.title,
		lat = excluded.lat,
		lon = excluded.lon,
		starts_at = excluded.starts_at,
		venue_address = excluded.venue_address,
		description = excluded.description,
		organizer_id = excluded.organizer_id,
		cover_image_url = excluded.cover_image_url;
	`)
	if err != nil {
		return fmt.Errorf("seed gigs: prepare insert: %w", err)
	}
	defer gigStmt.Close()

	for _, g := range data.Gigs {
		if _, err := gigStmt.ExecContext(
			ctx,
			g.ID,
			g.Title,
			g.Location.Lat,
			g.Location.Lon,
			g.StartsAt.Format(time.RFC3339),
			g.VenueAddress,
			g.Description,
			nullIfEmpty(g.OrganizerID),
			g.CoverImageURL,
		); err != nil {
			return fmt.Errorf("seed gigs: insert id=%s: %w", g.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed gigs: commit tx: %w", err)
	}

	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
