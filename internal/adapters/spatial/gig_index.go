// Package spatial pre-indexes gigs in an R-tree so nearby queries only run
// the exact distance filter over a bounding-box superset.
package spatial

import (
	"gig-finder-service/internal/domain"
	"log/slog"
	"math"
	"slices"
	"sync"

	"github.com/dhconnelly/rtreego"
)

const (
	dimensions  = 2
	minChildren = 25
	maxChildren = 50

	// pointTolerance turns a point into a tiny rectangle for the tree.
	pointTolerance = 1e-7
	// boxPadding widens query boxes past floating point noise.
	boxPadding = 1e-6

	earthRadiusKm = 6371.0
)

// indexedGig wraps a gig for R-tree storage. Coordinates are stored as
// (lat, lon). pos is the gig's position in the input slice.
type indexedGig struct {
	gig  domain.Gig
	pos  int
	rect rtreego.Rect
}

func (ig *indexedGig) Bounds() rtreego.Rect {
	return ig.rect
}

// GigIndex is a read-mostly R-tree over gig locations. Safe for concurrent use.
type GigIndex struct {
	mu      sync.RWMutex
	tree    *rtreego.Rtree
	count   int
	skipped int
}

// NewGigIndex bulk-loads gigs. Gigs with invalid coordinates are left out.
func NewGigIndex(gigs []domain.Gig) *GigIndex {
	idx := &GigIndex{}
	idx.Rebuild(gigs)
	return idx
}

// Rebuild replaces the indexed set.
func (g *GigIndex) Rebuild(gigs []domain.Gig) {
	items := make([]rtreego.Spatial, 0, len(gigs))
	skipped := 0
	for i, gig := range gigs {
		if err := gig.Location.Validate(); err != nil {
			slog.Warn("spatial index: skipping gig", "gig_id", gig.ID, "err", err)
			skipped++
			continue
		}
		p := rtreego.Point{gig.Location.Lat, gig.Location.Lon}
		items = append(items, &indexedGig{gig: gig, pos: i, rect: p.ToRect(pointTolerance)})
	}

	tree := rtreego.NewTree(dimensions, minChildren, maxChildren, items...)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.tree = tree
	g.count = len(items)
	g.skipped = skipped
}

// Len returns the number of indexed gigs.
func (g *GigIndex) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.count
}

// Candidates returns every indexed gig that may lie within radiusKm of ref,
// in input order. The result is a superset of the exact radius filter.
func (g *GigIndex) Candidates(ref domain.GeoPoint, radiusKm float64) []domain.Gig {
	if !(radiusKm > 0) || ref.Validate() != nil {
		return []domain.Gig{}
	}

	boxes := boundingBoxes(ref, radiusKm)

	g.mu.RLock()
	hits := make([]*indexedGig, 0)
	seen := make(map[int]struct{})
	for _, box := range boxes {
		for _, s := range g.tree.SearchIntersect(box) {
			ig, ok := s.(*indexedGig)
			if !ok {
				continue
			}
			if _, dup := seen[ig.pos]; dup {
				continue
			}
			seen[ig.pos] = struct{}{}
			hits = append(hits, ig)
		}
	}
	g.mu.RUnlock()

	slices.SortFunc(hits, func(a, b *indexedGig) int { return a.pos - b.pos })

	out := make([]domain.Gig, len(hits))
	for i, h := range hits {
		out[i] = h.gig
	}
	return out
}

// boundingBoxes returns one or two (lat, lon) rectangles covering every point
// within radiusKm of ref. Boxes crossing the antimeridian are split.
func boundingBoxes(ref domain.GeoPoint, radiusKm float64) []rtreego.Rect {
	angular := radiusKm / earthRadiusKm
	latRad := ref.Lat * math.Pi / 180

	minLat := latRad - angular
	maxLat := latRad + angular

	var minLon, maxLon float64
	fullLon := false

	if minLat <= -math.Pi/2 || maxLat >= math.Pi/2 || angular >= math.Pi {
		// A pole is within reach; every longitude qualifies.
		fullLon = true
		minLat = math.Max(minLat, -math.Pi/2)
		maxLat = math.Min(maxLat, math.Pi/2)
	} else {
		ratio := math.Sin(angular) / math.Cos(latRad)
		if ratio >= 1 {
			fullLon = true
		} else {
			dLon := math.Asin(ratio) * 180 / math.Pi
			minLon = ref.Lon - dLon
			maxLon = ref.Lon + dLon
		}
	}

	latLo := minLat*180/math.Pi - boxPadding
	latHi := maxLat*180/math.Pi + boxPadding

	if fullLon {
		return []rtreego.Rect{mustRect(latLo, -180-boxPadding, latHi, 180+boxPadding)}
	}

	minLon -= boxPadding
	maxLon += boxPadding

	switch {
	case minLon < -180:
		return []rtreego.Rect{
			mustRect(latLo, minLon+360, latHi, 180+boxPadding),
			mustRect(latLo, -180-boxPadding, latHi, maxLon),
		}
	case maxLon > 180:
		return []rtreego.Rect{
			mustRect(latLo, minLon, latHi, 180+boxPadding),
			mustRect(latLo, -180-boxPadding, latHi, maxLon-360),
		}
	default:
		return []rtreego.Rect{mustRect(latLo, minLon, latHi, maxLon)}
	}
}

func mustRect(minLat, minLon, maxLat, maxLon float64) rtreego.Rect {
	r, err := rtreego.NewRectFromPoints(rtreego.Point{minLat, minLon}, rtreego.Point{maxLat, maxLon})
	if err != nil {
		// Only reachable on a dimension mismatch, which the constant 2-D points rule out.
		panic(err)
	}
	return r
}
