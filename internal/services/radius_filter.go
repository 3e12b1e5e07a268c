package services

import (
	"gig-finder-service/internal/domain"
	"log/slog"
)

// FilterWithinRadius returns the gigs whose location lies within radiusKm of ref,
// each annotated with its distance. The boundary is inclusive.
//
// Output order is unspecified; pair with SortGigs. Candidates with invalid
// coordinates are skipped and logged, they never abort the pass.
func FilterWithinRadius(ref domain.GeoPoint, candidates []domain.Gig, radiusKm float64) []domain.AnnotatedGig {
	return FilterWithinRadiusWithLogger(slog.Default(), ref, candidates, radiusKm)
}

// FilterWithinRadiusWithLogger is FilterWithinRadius with an explicit logger.
func FilterWithinRadiusWithLogger(
	logger *slog.Logger,
	ref domain.GeoPoint,
	candidates []domain.Gig,
	radiusKm float64,
) []domain.AnnotatedGig {
	out := []domain.AnnotatedGig{}

	if len(candidates) == 0 || !(radiusKm > 0) {
		return out
	}

	if err := ref.Validate(); err != nil {
		logger.Warn("radius filter: invalid reference point", "ref", ref.String(), "err", err)
		return out
	}

	skipped := 0
	for _, g := range candidates {
		if err := g.Location.Validate(); err != nil {
			skipped++
			logger.Warn("radius filter: skipping gig", "gig_id", g.ID, "err", err)
			continue
		}

		d := DistanceKm(ref, g.Location)
		if d <= radiusKm {
			out = append(out, domain.AnnotatedGig{Gig: g, DistanceKm: d})
		}
	}

	logger.Debug(
		"radius filter",
		"ref", ref.String(),
		"radius_km", radiusKm,
		"candidates", len(candidates),
		"kept", len(out),
		"skipped", skipped,
	)

	return out
}
