package ports

import (
	"context"
	"gig-finder-service/internal/domain"
)

// Contract for searching an external music catalog.
type TrackSearcher interface {
	SearchTracks(ctx context.Context, query string, limit int) ([]domain.Track, error)
}
