package geocode

import (
	"context"
	"errors"
	"gig-finder-service/internal/adapters/cache"
	"gig-finder-service/internal/adapters/repositories"
	"gig-finder-service/internal/domain"
	"gig-finder-service/internal/platform/db"
	"gig-finder-service/internal/platform/httpx"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newORSServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/geocode/search" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "key" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("text") {
		case "Jl. Braga 1, Bandung":
			_, _ = w.Write([]byte(`{"features":[{"geometry":{"coordinates":[107.6191,-6.9175]}}]}`))
		case "broken":
			_, _ = w.Write([]byte(`{"features":[{"geometry":{"coordinates":[1]}}]}`))
		default:
			_, _ = w.Write([]byte(`{"features":[]}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestGeocoder(t *testing.T, baseURL string) *ORSGeocoder {
	t.Helper()
	hc := httpx.NewClient(time.Second)
	hc.InitialBackoff = time.Millisecond
	g, err := NewORSGeocoder("key", WithBaseURL(baseURL), WithHTTPClient(hc), WithCountry("ID"))
	require.NoError(t, err)
	return g
}

func TestORSGeocoder_Geocode(t *testing.T) {
	var calls atomic.Int32
	srv := newORSServer(t, &calls)
	g := newTestGeocoder(t, srv.URL)

	p, err := g.Geocode(context.Background(), "  Jl. Braga 1,   Bandung ")
	require.NoError(t, err)
	assert.Equal(t, domain.GeoPoint{Lat: -6.9175, Lon: 107.6191}, p)

	_, err = g.Geocode(context.Background(), "nowhere")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = g.Geocode(context.Background(), "broken")
	assert.Error(t, err)

	_, err = g.Geocode(context.Background(), "   ")
	assert.Error(t, err)
}

func TestORSGeocoder_Unauthorized(t *testing.T) {
	var calls atomic.Int32
	srv := newORSServer(t, &calls)

	hc := httpx.NewClient(time.Second)
	g, err := NewORSGeocoder("wrong", WithBaseURL(srv.URL), WithHTTPClient(hc))
	require.NoError(t, err)

	_, err = g.Geocode(context.Background(), "Jl. Braga 1, Bandung")
	var se *httpx.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.Code)
	assert.EqualValues(t, 1, calls.Load())
}

func TestNewORSGeocoder_EmptyKey(t *testing.T) {
	_, err := NewORSGeocoder("")
	assert.Error(t, err)
}

func TestCachedGeocoder_OnlyMissesGoUpstream(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int32
	srv := newORSServer(t, &calls)

	conn, err := db.OpenSqlite(":memory:")
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, repositories.InitSchema(conn))

	cg, err := NewCachedGeocoder(newTestGeocoder(t, srv.URL), cache.NewSqliteGeocodeCache(conn))
	require.NoError(t, err)

	p, err := cg.Geocode(ctx, "Jl. Braga 1, Bandung")
	require.NoError(t, err)
	assert.InDelta(t, -6.9175, p.Lat, 1e-9)
	assert.EqualValues(t, 1, calls.Load())

	p2, err := cg.Geocode(ctx, "Jl.  Braga 1, Bandung")
	require.NoError(t, err)
	assert.Equal(t, p, p2)
	assert.EqualValues(t, 1, calls.Load())

	_, err = cg.Geocode(ctx, "nowhere")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
