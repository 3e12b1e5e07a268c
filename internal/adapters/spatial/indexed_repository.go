package spatial

import (
	"context"
	"errors"
	"fmt"
	"gig-finder-service/internal/domain"
	"gig-finder-service/internal/platform/obs"
	"gig-finder-service/internal/ports"
	"sync"
	"time"
)

// IndexedRepository keeps a GigIndex built from a GigRepository and rebuilds
// it once the index is older than ttl.
type IndexedRepository struct {
	repo ports.GigRepository
	ttl  time.Duration
	now  func() time.Time

	mu      sync.Mutex
	index   *GigIndex
	builtAt time.Time
}

func NewIndexedRepository(repo ports.GigRepository, ttl time.Duration) (*IndexedRepository, error) {
	if repo == nil {
		return nil, errors.New("indexed repository: repo is nil")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("indexed repository: ttl must be > 0, got %s", ttl)
	}
	return &IndexedRepository{repo: repo, ttl: ttl, now: time.Now}, nil
}

// ListGigs passes through to the backing repository.
func (r *IndexedRepository) ListGigs(ctx context.Context) ([]domain.Gig, error) {
	return r.repo.ListGigs(ctx)
}

// Candidates returns the bounding-box superset of gigs near ref.
func (r *IndexedRepository) Candidates(ctx context.Context, ref domain.GeoPoint, radiusKm float64) (_ []domain.Gig, err error) {
	defer obs.Time(ctx, "spatial.Candidates")(&err)

	idx, err := r.current(ctx)
	if err != nil {
		return nil, err
	}
	return idx.Candidates(ref, radiusKm), nil
}

// Invalidate forces a rebuild on the next query.
func (r *IndexedRepository) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builtAt = time.Time{}
}

func (r *IndexedRepository) current(ctx context.Context) (*GigIndex, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.index != nil && !r.builtAt.IsZero() && r.now().Sub(r.builtAt) < r.ttl {
		return r.index, nil
	}

	gigs, err := r.repo.ListGigs(ctx)
	if err != nil {
		return nil, fmt.Errorf("rebuild spatial index: %w", err)
	}

	if r.index == nil {
		r.index = NewGigIndex(gigs)
	} else {
		r.index.Rebuild(gigs)
	}
	r.builtAt = r.now()
	return r.index, nil
}
