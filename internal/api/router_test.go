package api

import (
	"context"
	"encoding/json"
	"errors"
	"gig-finder-service/internal/adapters/repositories"
	"gig-finder-service/internal/adapters/spatial"
	"gig-finder-service/internal/api/dto"
	"gig-finder-service/internal/domain"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

// Gigs placed north of Jakarta at known distances.
func testGigs() []domain.Gig {
	ref := domain.GeoPoint{Lat: -6.2088, Lon: 106.8456}
	at := func(km float64) domain.GeoPoint {
		return domain.GeoPoint{Lat: ref.Lat + km/111.195, Lon: ref.Lon}
	}
	return []domain.Gig{
		{ID: "g8", Title: "Eight", Location: at(8), StartsAt: fixedNow.Add(24 * time.Hour)},
		{ID: "g3", Title: "Three", Location: at(3), StartsAt: fixedNow.Add(72 * time.Hour),
			Organizer: domain.Musician{ID: "m1", Name: "Trio", Genre: "jazz"}},
		{ID: "g1", Title: "One", Location: at(1), StartsAt: fixedNow.Add(-24 * time.Hour)},
		{ID: "g20", Title: "Twenty", Location: at(20), StartsAt: fixedNow.Add(48 * time.Hour)},
	}
}

type failingRepo struct{}

func (failingRepo) ListGigs(ctx context.Context) ([]domain.Gig, error) {
	return nil, errors.New("db down")
}

type stubSearcher struct {
	tracks []domain.Track
	err    error
	limit  int
}

func (s *stubSearcher) SearchTracks(ctx context.Context, query string, limit int) ([]domain.Track, error) {
	s.limit = limit
	return s.tracks, s.err
}

func newTestRouter(t *testing.T, deps Deps) http.Handler {
	t.Helper()
	if deps.Gigs == nil {
		deps.Gigs = repositories.NewMemoryGigRepository(testGigs())
	}
	if deps.Radii.Len() == 0 {
		deps.Radii = domain.ExtendedRadii
	}
	if deps.DefaultRadius == 0 {
		deps.DefaultRadius = 10
	}
	deps.Now = func() time.Time { return fixedNow }
	return NewRouter(deps)
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func nearbyIDs(res dto.NearbyResponse) []string {
	out := make([]string, len(res.Gigs))
	for i, g := range res.Gigs {
		out[i] = g.ID
	}
	return out
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t, Deps{Storage: "sqlite"})
	rec := get(t, h, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","storage":"sqlite","catalog":false}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	req.Header.Set(requestIDHeader, "abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodGet, rec.Header().Get("Allow"))
	assert.Equal(t, "abc", rec.Header().Get(requestIDHeader))

	rec = get(t, newTestRouter(t, Deps{Storage: "postgres", Tracks: &stubSearcher{}}), "/health")
	assert.JSONEq(t, `{"status":"ok","storage":"postgres","catalog":true}`, rec.Body.String())
}

func TestListGigs(t *testing.T) {
	rec := get(t, newTestRouter(t, Deps{}), "/gigs")
	require.Equal(t, http.StatusOK, rec.Code)

	var res dto.ListGigsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Gigs, 4)

	byID := map[string]dto.GigResponse{}
	for _, g := range res.Gigs {
		byID[g.ID] = g
	}
	assert.False(t, byID["g1"].Upcoming)
	assert.True(t, byID["g3"].Upcoming)
	require.NotNil(t, byID["g3"].Organizer)
	assert.Equal(t, domain.RoleMusician, byID["g3"].Organizer.Role)
	assert.Nil(t, byID["g8"].Organizer)

	rec = get(t, newTestRouter(t, Deps{Gigs: failingRepo{}}), "/gigs")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNearby(t *testing.T) {
	repo := repositories.NewMemoryGigRepository(testGigs())
	indexed, err := spatial.NewIndexedRepository(repo, time.Minute)
	require.NoError(t, err)

	for name, deps := range map[string]Deps{
		"brute force": {Gigs: repo},
		"indexed":     {Gigs: repo, Candidates: indexed},
	} {
		t.Run(name, func(t *testing.T) {
			h := newTestRouter(t, deps)

			rec := get(t, h, "/gigs/nearby?lat=-6.2088&lon=106.8456")
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var res dto.NearbyResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
			assert.Equal(t, 10.0, res.RadiusKm)
			assert.Equal(t, "distance", res.Sort)
			assert.Equal(t, 3, res.Count)
			assert.Equal(t, []string{"g1", "g3", "g8"}, nearbyIDs(res))
			assert.InDelta(t, 1.0, res.Gigs[0].DistanceKm, 0.01)
			assert.False(t, res.Gigs[0].Upcoming)
			assert.Equal(t, domain.ExtendedRadii.Values(), res.Radii)

			rec = get(t, h, "/gigs/nearby?lat=-6.2088&lon=106.8456&radius=25&sort=time")
			require.Equal(t, http.StatusOK, rec.Code)
			res = dto.NearbyResponse{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
			assert.Equal(t, "start_time", res.Sort)
			assert.Equal(t, []string{"g1", "g8", "g20", "g3"}, nearbyIDs(res))

			rec = get(t, h, "/gigs/nearby?lat=-6.2088&lon=106.8456&radius=1")
			require.Equal(t, http.StatusOK, rec.Code)
			res = dto.NearbyResponse{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
			assert.Equal(t, []string{"g1"}, nearbyIDs(res))
		})
	}
}

func TestNearby_BadRequests(t *testing.T) {
	h := newTestRouter(t, Deps{})

	for _, target := range []string{
		"/gigs/nearby",
		"/gigs/nearby?lat=abc&lon=1",
		"/gigs/nearby?lat=1&lon=abc",
		"/gigs/nearby?lat=91&lon=0",
		"/gigs/nearby?lat=NaN&lon=0",
		"/gigs/nearby?lat=0&lon=0&radius=7",
		"/gigs/nearby?lat=0&lon=0&radius=-1",
		"/gigs/nearby?lat=0&lon=0&sort=price",
	} {
		t.Run(target, func(t *testing.T) {
			rec := get(t, h, target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}

	rec := get(t, newTestRouter(t, Deps{Gigs: failingRepo{}}), "/gigs/nearby?lat=0&lon=0")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSongSearch(t *testing.T) {
	rec := get(t, newTestRouter(t, Deps{}), "/songs/search?q=solo")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	searcher := &stubSearcher{tracks: []domain.Track{
		{ID: "t1", Name: "Bengawan Solo", Artists: []string{"Gesang"}, Album: "Keroncong"},
	}}
	h := newTestRouter(t, Deps{Tracks: searcher})

	rec = get(t, h, "/songs/search?q=solo&limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	var res dto.SearchTracksResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "solo", res.Query)
	require.Len(t, res.Tracks, 1)
	assert.Equal(t, "Bengawan Solo", res.Tracks[0].Name)
	assert.Equal(t, 5, searcher.limit)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/songs/search").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/songs/search?q=x&limit=0").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/songs/search?q=x&limit=99").Code)

	searcher.err = errors.New("upstream down")
	assert.Equal(t, http.StatusBadGateway, get(t, h, "/songs/search?q=x").Code)
}
