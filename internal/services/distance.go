package services

import (
	"fmt"
	"gig-finder-service/internal/domain"
	"math"
)

const earthRadiusKm = 6371.0

// DistanceKm computes the great-circle distance between two points using the
// haversine formula on a spherical Earth. The result is in kilometers and is not rounded.
// Inputs are trusted; use CheckedDistanceKm when coordinates come from an unvalidated source.
func DistanceKm(a, b domain.GeoPoint) float64 {
	lat1 := degreesToRadians(a.Lat)
	lat2 := degreesToRadians(b.Lat)
	deltaLat := degreesToRadians(b.Lat - a.Lat)
	deltaLon := degreesToRadians(b.Lon - a.Lon)

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	// Rounding can push h marginally above 1 for antipodal points.
	h = math.Min(1, math.Max(0, h))

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// CheckedDistanceKm validates both points before computing DistanceKm.
// The returned error wraps domain.ErrInvalidCoordinate.
func CheckedDistanceKm(a, b domain.GeoPoint) (float64, error) {
	if err := a.Validate(); err != nil {
		return 0, fmt.Errorf("distance: from %v: %w", a, err)
	}
	if err := b.Validate(); err != nil {
		return 0, fmt.Errorf("distance: to %v: %w", b, err)
	}
	return DistanceKm(a, b), nil
}

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}
