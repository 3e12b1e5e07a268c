package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"gig-finder-service/internal/adapters/cache"
	"gig-finder-service/internal/adapters/catalog"
	"gig-finder-service/internal/adapters/geocode"
	"gig-finder-service/internal/adapters/repositories"
	"gig-finder-service/internal/adapters/spatial"
	"gig-finder-service/internal/api"
	"gig-finder-service/internal/config"
	"gig-finder-service/internal/domain"
	"gig-finder-service/internal/platform/db"
	"gig-finder-service/internal/platform/obs"
	"gig-finder-service/internal/ports"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
)

// main is the application composition root.
// It wires concrete adapters (SQLite or Postgres, Redis, ORS, catalog) behind
// ports and starts the HTTP server.
func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fatal("load config", err)
	}

	obs.NewLogger(os.Stderr, cfg.LogLevel)
	if envErr != nil {
		slog.Info("no .env file found (using environment variables)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		fatal("server", err)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	if err := domain.ExtendedRadii.Validate(cfg.DefaultRadiusKm); err != nil {
		return fmt.Errorf("DEFAULT_RADIUS_KM: %w", err)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.db.Close()

	var repo ports.GigRepository = store.repo
	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()

		if err := client.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unreachable at startup; cache will read through", "err", err)
		}

		repo, err = cache.NewRedisGigCache(client, store.repo, cfg.GigCacheTTL)
		if err != nil {
			return err
		}
		slog.Info("gig cache enabled", "ttl", cfg.GigCacheTTL)
	}

	indexed, err := spatial.NewIndexedRepository(repo, cfg.GigCacheTTL)
	if err != nil {
		return err
	}

	deps := api.Deps{
		Storage:       store.kind,
		Gigs:          repo,
		Candidates:    indexed,
		Radii:         domain.ExtendedRadii,
		DefaultRadius: cfg.DefaultRadiusKm,
	}

	if cfg.CatalogEnabled() {
		tokens, err := catalog.NewTokenSource(cfg.CatalogTokenURL, cfg.CatalogClientID, cfg.CatalogSecret)
		if err != nil {
			return err
		}
		client, err := catalog.NewClient(cfg.CatalogAPIURL, tokens)
		if err != nil {
			return err
		}
		deps.Tracks = client
		slog.Info("music catalog search enabled")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr, "storage", store.kind)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type gigStore struct {
	kind string
	db   *sql.DB
	repo ports.GigRepository
}

// openStore picks Postgres when DATABASE_URL is set, SQLite otherwise.
// SQLite is initialized and seeded on startup for local runs; Postgres is
// prepared with cmd/dbtool.
func openStore(ctx context.Context, cfg config.Config) (*gigStore, error) {
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return &gigStore{kind: "postgres", db: conn, repo: repositories.NewPostgresGigRepository(conn)}, nil
	}

	conn, err := db.OpenSqlite(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	if err := initAndSeed(ctx, conn, cfg); err != nil {
		conn.Close()
		return nil, err
	}

	return &gigStore{kind: "sqlite", db: conn, repo: repositories.NewSqliteGigRepository(conn)}, nil
}

func initAndSeed(ctx context.Context, conn *sql.DB, cfg config.Config) error {
	if err := repositories.InitSchema(conn); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	if _, err := os.Stat(cfg.SeedPath); err != nil {
		slog.Warn("seed file not found; starting with existing data", "path", cfg.SeedPath)
		return nil
	}

	geocoder, err := newGeocoder(cfg, cache.NewSqliteGeocodeCache(conn))
	if err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	if err := repositories.SeedFromJSON(ctx, conn, cfg.SeedPath, geocoder); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}
	return nil
}

// newGeocoder returns nil when no ORS key is configured.
func newGeocoder(cfg config.Config, store geocode.Store) (ports.Geocoder, error) {
	if cfg.ORSAPIKey == "" {
		return nil, nil
	}
	ors, err := geocode.NewORSGeocoder(cfg.ORSAPIKey)
	if err != nil {
		return nil, err
	}
	return geocode.NewCachedGeocoder(ors, store)
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}
