package ports

import (
	"context"
	"gig-finder-service/internal/domain"
)

// Contract for a one-shot acquisition of the caller's current position.
// Implementations must return promptly once ctx is done.
type LocationSource interface {
	CurrentPosition(ctx context.Context) (domain.GeoPoint, error)
}
