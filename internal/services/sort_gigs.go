package services

import (
	"cmp"
	"gig-finder-service/internal/domain"
	"slices"
)

// SortGigs returns a new slice ordered by the selected key, ascending.
// The sort is stable, so ties keep their input order. The input is not modified.
func SortGigs(gigs []domain.AnnotatedGig, key domain.SortKey) []domain.AnnotatedGig {
	out := slices.Clone(gigs)
	if out == nil {
		out = []domain.AnnotatedGig{}
	}

	switch key {
	case domain.SortByStartTime:
		slices.SortStableFunc(out, func(a, b domain.AnnotatedGig) int {
			return a.StartsAt.Compare(b.StartsAt)
		})
	default:
		slices.SortStableFunc(out, func(a, b domain.AnnotatedGig) int {
			return cmp.Compare(a.DistanceKm, b.DistanceKm)
		})
	}

	return out
}

// FindNearby runs the radius filter followed by the sort strategy.
func FindNearby(
	ref domain.GeoPoint,
	candidates []domain.Gig,
	radiusKm float64,
	key domain.SortKey,
) []domain.AnnotatedGig {
	return SortGigs(FilterWithinRadius(ref, candidates, radiusKm), key)
}
