package api

import (
	"gig-finder-service/internal/api/handlers"
	"gig-finder-service/internal/domain"
	"gig-finder-service/internal/ports"
	"net/http"
	"time"
)

// Deps lists what the HTTP layer needs. Candidates and Tracks are optional.
// Storage names the gig store for /health.
type Deps struct {
	Storage       string
	Gigs          ports.GigRepository
	Candidates    handlers.CandidateSource
	Tracks        ports.TrackSearcher
	Radii         domain.RadiusSet
	DefaultRadius float64
	Now           func() time.Time
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(deps Deps) http.Handler {
	mux := http.NewServeMux()

	gigHandler := &handlers.GigHandler{
		Repo:          deps.Gigs,
		Candidates:    deps.Candidates,
		Radii:         deps.Radii,
		DefaultRadius: deps.DefaultRadius,
		Now:           deps.Now,
	}

	healthHandler := &handlers.HealthHandler{Storage: deps.Storage, Catalog: deps.Tracks != nil}

	mux.HandleFunc("/health", healthHandler.Health)
	mux.HandleFunc("/gigs", gigHandler.List)
	mux.HandleFunc("/gigs/nearby", gigHandler.Nearby)

	if deps.Tracks != nil {
		songHandler := &handlers.SongHandler{Searcher: deps.Tracks}
		mux.HandleFunc("/songs/search", songHandler.Search)
	}

	return requestIDMiddleware(loggingMiddleware(mux))
}
