package repositories

import (
	"context"
	"gig-finder-service/internal/domain"
	"slices"
	"sync"
)

// MemoryGigRepository serves a fixed, replaceable set of gigs. Used by tests
// and by the CLI when a seed file is loaded without a database.
type MemoryGigRepository struct {
	mu   sync.RWMutex
	gigs []domain.Gig
	err  error
}

func NewMemoryGigRepository(gigs []domain.Gig) *MemoryGigRepository {
	return &MemoryGigRepository{gigs: slices.Clone(gigs)}
}

// NewMemoryGigRepositoryFromSeed loads a seed file into memory.
func NewMemoryGigRepositoryFromSeed(ctx context.Context, jsonPath string) (*MemoryGigRepository, error) {
	data, err := loadSeed(ctx, jsonPath, nil)
	if err != nil {
		return nil, err
	}

	accounts := make(map[string]domain.Account, len(data.Users))
	for _, u := range data.Users {
		acc, err := domain.AccountFromRecord(u.ID, u.Name, u.Role, u.Genre)
		if err != nil {
			return nil, err
		}
		accounts[u.ID] = acc
	}

	gigs := make([]domain.Gig, 0, len(data.Gigs))
	for _, g := range data.Gigs {
		gigs = append(gigs, domain.Gig{
			ID:            g.ID,
			Title:         g.Title,
			Location:      g.Location,
			StartsAt:      g.StartsAt,
			VenueAddress:  g.VenueAddress,
			Description:   g.Description,
			Organizer:     accounts[g.OrganizerID],
			CoverImageURL: g.CoverImageURL,
		})
	}

	return &MemoryGigRepository{gigs: gigs}, nil
}

func (r *MemoryGigRepository) ListGigs(ctx context.Context) ([]domain.Gig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.err != nil {
		return nil, r.err
	}
	return slices.Clone(r.gigs), nil
}

// Replace swaps the stored gigs.
func (r *MemoryGigRepository) Replace(gigs []domain.Gig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gigs = slices.Clone(gigs)
}

// FailWith makes every ListGigs call return err until cleared with nil.
func (r *MemoryGigRepository) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}
