package ports

import (
	"context"
	"gig-finder-service/internal/domain"
)

// Port: a boundary for retrieving Gig entities from a data source.
type GigRepository interface {
	// Retrieve the full candidate set of gigs. Filtering happens in the caller.
	ListGigs(ctx context.Context) ([]domain.Gig, error)
}
