package handlers

import (
	"context"
	"fmt"
	"gig-finder-service/internal/api/dto"
	"gig-finder-service/internal/domain"
	"gig-finder-service/internal/platform/obs"
	"gig-finder-service/internal/ports"
	"gig-finder-service/internal/services"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CandidateSource narrows the gig set before the exact radius filter.
// spatial.IndexedRepository implements it.
type CandidateSource interface {
	Candidates(ctx context.Context, ref domain.GeoPoint, radiusKm float64) ([]domain.Gig, error)
}

// GigHandler exposes gig listing and the nearby query.
type GigHandler struct {
	Repo          ports.GigRepository
	Candidates    CandidateSource
	Radii         domain.RadiusSet
	DefaultRadius float64
	Now           func() time.Time
}

func (h *GigHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *GigHandler) List(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}

	gigs, err := h.Repo.ListGigs(r.Context())
	if err != nil {
		slog.Error("list gigs failed", "req_id", obs.RequestID(r.Context()), "err", err)
		writeError(w, r, http.StatusServiceUnavailable, "gig data unavailable")
		return
	}

	now := h.now()
	res := dto.ListGigsResponse{Gigs: make([]dto.GigResponse, 0, len(gigs))}
	for _, g := range gigs {
		res.Gigs = append(res.Gigs, dto.FromGig(g, now))
	}

	writeJSON(w, r, http.StatusOK, res)
}

// Nearby answers GET /gigs/nearby?lat=&lon=&radius=&sort=.
func (h *GigHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}

	q := r.URL.Query()

	ref, err := parsePoint(q.Get("lat"), q.Get("lon"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	radius := h.DefaultRadius
	if raw := strings.TrimSpace(q.Get("radius")); raw != "" {
		radius, err = h.Radii.Parse(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}

	key, err := domain.ParseSortKey(q.Get("sort"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	candidates, err := h.candidates(r.Context(), ref, radius)
	if err != nil {
		slog.Error("nearby gigs failed", "req_id", obs.RequestID(r.Context()), "err", err)
		writeError(w, r, http.StatusServiceUnavailable, "gig data unavailable")
		return
	}

	results := services.FindNearby(ref, candidates, radius, key)

	now := h.now()
	res := dto.NearbyResponse{
		Reference: dto.PointResponse{Lat: ref.Lat, Lon: ref.Lon},
		RadiusKm:  radius,
		Sort:      key.String(),
		Radii:     h.Radii.Values(),
		Count:     len(results),
		Gigs:      make([]dto.NearbyGigResponse, 0, len(results)),
	}
	for _, a := range results {
		res.Gigs = append(res.Gigs, dto.NearbyGigResponse{
			GigResponse: dto.FromGig(a.Gig, now),
			DistanceKm:  a.DistanceKm,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *GigHandler) candidates(ctx context.Context, ref domain.GeoPoint, radius float64) ([]domain.Gig, error) {
	if h.Candidates != nil {
		return h.Candidates.Candidates(ctx, ref, radius)
	}
	return h.Repo.ListGigs(ctx)
}

func parsePoint(rawLat, rawLon string) (domain.GeoPoint, error) {
	rawLat, rawLon = strings.TrimSpace(rawLat), strings.TrimSpace(rawLon)
	if rawLat == "" || rawLon == "" {
		return domain.GeoPoint{}, fmt.Errorf("lat and lon are required")
	}

	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("lat must be a number")
	}
	lon, err := strconv.ParseFloat(rawLon, 64)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("lon must be a number")
	}

	p := domain.GeoPoint{Lat: lat, Lon: lon}
	if err := p.Validate(); err != nil {
		return domain.GeoPoint{}, err
	}
	return p, nil
}
