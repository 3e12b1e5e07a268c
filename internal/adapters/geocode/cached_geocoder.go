package geocode

import (
	"context"
	"errors"
	"fmt"
	"gig-finder-service/internal/domain"
	"gig-finder-service/internal/platform/obs"
	"gig-finder-service/internal/ports"
	"log/slog"
)

// Store is a persistent address -> coordinates cache
// (cache.SqliteGeocodeCache or cache.SQLGeocodeCache).
type Store interface {
	GetMany(ctx context.Context, addresses []string) (map[string]domain.GeoPoint, error)
	PutMany(ctx context.Context, results map[string]domain.GeoPoint) error
}

// CachedGeocoder consults the store first and only sends misses upstream.
type CachedGeocoder struct {
	upstream ports.BatchGeocoder
	store    Store
}

func NewCachedGeocoder(upstream ports.BatchGeocoder, store Store) (*CachedGeocoder, error) {
	if upstream == nil {
		return nil, errors.New("cached geocoder: upstream is nil")
	}
	if store == nil {
		return nil, errors.New("cached geocoder: store is nil")
	}
	return &CachedGeocoder{upstream: upstream, store: store}, nil
}

func (c *CachedGeocoder) Geocode(ctx context.Context, address string) (domain.GeoPoint, error) {
	norm := Normalize(address)
	if norm == "" {
		return domain.GeoPoint{}, errors.New("geocode: address must be non-empty")
	}

	res, err := c.GeocodeMany(ctx, []string{norm})
	if err != nil {
		return domain.GeoPoint{}, err
	}
	p, ok := res[norm]
	if !ok {
		return domain.GeoPoint{}, fmt.Errorf("geocode %q: %w", norm, domain.ErrNotFound)
	}
	return p, nil
}

func (c *CachedGeocoder) GeocodeMany(ctx context.Context, addresses []string) (_ map[string]domain.GeoPoint, err error) {
	defer obs.Time(ctx, "geocode.cached.GeocodeMany")(&err)

	norms := make([]string, 0, len(addresses))
	for _, a := range addresses {
		if n := Normalize(a); n != "" {
			norms = append(norms, n)
		}
	}

	out, err := c.store.GetMany(ctx, norms)
	if err != nil {
		return nil, fmt.Errorf("geocode cache lookup: %w", err)
	}

	misses := make([]string, 0)
	for _, n := range norms {
		if _, ok := out[n]; !ok {
			misses = append(misses, n)
		}
	}
	if len(misses) == 0 {
		return out, nil
	}

	fetched, err := c.upstream.GeocodeMany(ctx, misses)
	if err != nil {
		return nil, err
	}

	if err := c.store.PutMany(ctx, fetched); err != nil {
		slog.Warn("geocode cache: store failed", "err", err)
	}

	for k, v := range fetched {
		out[k] = v
	}
	return out, nil
}
