package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config lists the tunable parameters of the gig finder service.
type Config struct {
	Port            string
	DBPath          string
	DatabaseURL     string
	SeedPath        string
	ORSAPIKey       string
	RedisURL        string
	GigCacheTTL     time.Duration
	CatalogClientID string
	CatalogSecret   string
	CatalogTokenURL string
	CatalogAPIURL   string
	LogLevel        string
	DefaultRadiusKm float64
}

const (
	defaultPort            = "8080"
	defaultDBPath          = "data/app.db"
	defaultSeedPath        = "data/seeds/gigs.json"
	defaultGigCacheTTL     = time.Minute
	defaultCatalogTokenURL = "https://accounts.spotify.com/api/token"
	defaultCatalogAPIURL   = "https://api.spotify.com"
	defaultLogLevel        = "info"
	defaultRadiusKm        = 10
)

// Get returns the environment value for key, or fallback when unset or empty.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// Load derives configuration values from environment variables, falling back to defaults.
func Load() (Config, error) {
	cfg := Config{
		Port:            Get("PORT", defaultPort),
		DBPath:          Get("DB_PATH", defaultDBPath),
		DatabaseURL:     Get("DATABASE_URL", ""),
		SeedPath:        Get("SEED_PATH", defaultSeedPath),
		ORSAPIKey:       Get("ORS_API_KEY", ""),
		RedisURL:        Get("REDIS_URL", ""),
		GigCacheTTL:     defaultGigCacheTTL,
		CatalogClientID: Get("CATALOG_CLIENT_ID", ""),
		CatalogSecret:   Get("CATALOG_CLIENT_SECRET", ""),
		CatalogTokenURL: Get("CATALOG_TOKEN_URL", defaultCatalogTokenURL),
		CatalogAPIURL:   Get("CATALOG_API_URL", defaultCatalogAPIURL),
		LogLevel:        Get("LOG_LEVEL", defaultLogLevel),
		DefaultRadiusKm: defaultRadiusKm,
	}

	if v := Get("GIG_CACHE_TTL", ""); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid GIG_CACHE_TTL: %w", err)
		}
		if ttl <= 0 {
			return Config{}, fmt.Errorf("invalid GIG_CACHE_TTL: must be positive, got %s", ttl)
		}
		cfg.GigCacheTTL = ttl
	}

	if v := Get("DEFAULT_RADIUS_KM", ""); v != "" {
		km, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DEFAULT_RADIUS_KM: %w", err)
		}
		cfg.DefaultRadiusKm = km
	}

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return Config{}, fmt.Errorf("invalid PORT %q: %w", cfg.Port, err)
	}

	return cfg, nil
}

// CatalogEnabled reports whether music catalog credentials are configured.
func (c Config) CatalogEnabled() bool {
	return c.CatalogClientID != "" && c.CatalogSecret != ""
}
