package ports

import (
	"context"
	"gig-finder-service/internal/domain"
)

// Contract for resolving a free-form address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (domain.GeoPoint, error)
}

// Optional extension of Geocoder that resolves many addresses at once.
type BatchGeocoder interface {
	Geocoder
	GeocodeMany(ctx context.Context, addresses []string) (map[string]domain.GeoPoint, error)
}
