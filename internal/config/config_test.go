package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_PATH", "DATABASE_URL", "GIG_CACHE_TTL", "DEFAULT_RADIUS_KM", "CATALOG_CLIENT_ID", "CATALOG_CLIENT_SECRET"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "data/app.db", cfg.DBPath)
	assert.Equal(t, "", cfg.DatabaseURL)
	assert.Equal(t, time.Minute, cfg.GigCacheTTL)
	assert.Equal(t, 10.0, cfg.DefaultRadiusKm)
	assert.False(t, cfg.CatalogEnabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("GIG_CACHE_TTL", "30s")
	t.Setenv("DEFAULT_RADIUS_KM", "25")
	t.Setenv("CATALOG_CLIENT_ID", "id")
	t.Setenv("CATALOG_CLIENT_SECRET", "secret")
	t.Setenv("LOG_LEVEL", " debug ")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.GigCacheTTL)
	assert.Equal(t, 25.0, cfg.DefaultRadiusKm)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.CatalogEnabled())
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "bad ttl", key: "GIG_CACHE_TTL", val: "soon"},
		{name: "negative ttl", key: "GIG_CACHE_TTL", val: "-5s"},
		{name: "bad radius", key: "DEFAULT_RADIUS_KM", val: "far"},
		{name: "bad port", key: "PORT", val: "http"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestGetFallback(t *testing.T) {
	t.Setenv("GIG_FINDER_TEST_KEY", "")
	assert.Equal(t, "fallback", Get("GIG_FINDER_TEST_KEY", "fallback"))

	t.Setenv("GIG_FINDER_TEST_KEY", "value")
	assert.Equal(t, "value", Get("GIG_FINDER_TEST_KEY", "fallback"))
}
