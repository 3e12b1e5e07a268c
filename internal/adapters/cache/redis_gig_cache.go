package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"gig-finder-service/internal/domain"
	"gig-finder-service/internal/platform/obs"
	"gig-finder-service/internal/ports"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const gigListKey = "gigs:all"

// backingTimeout bounds a coalesced miss, which no longer follows any caller's context.
const backingTimeout = 30 * time.Second

// RedisGigCache is a read-through cache in front of a GigRepository.
// Concurrent misses share a single backing fetch. Redis failures degrade
// to reading the backing repository directly.
type RedisGigCache struct {
	client  *redis.Client
	backing ports.GigRepository
	ttl     time.Duration
	group   singleflight.Group
}

func NewRedisGigCache(client *redis.Client, backing ports.GigRepository, ttl time.Duration) (*RedisGigCache, error) {
	if client == nil {
		return nil, errors.New("redis gig cache: client is nil")
	}
	if backing == nil {
		return nil, errors.New("redis gig cache: backing repository is nil")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("redis gig cache: ttl must be > 0, got %s", ttl)
	}
	return &RedisGigCache{client: client, backing: backing, ttl: ttl}, nil
}

// NewRedisClient builds a client from a redis:// URL.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func (c *RedisGigCache) ListGigs(ctx context.Context) (_ []domain.Gig, err error) {
	defer obs.Time(ctx, "RedisGigCache.ListGigs")(&err)

	raw, err := c.client.Get(ctx, gigListKey).Bytes()
	switch {
	case err == nil:
		gigs, decodeErr := decodeGigs(raw)
		if decodeErr == nil {
			return gigs, nil
		}
		slog.Warn("gig cache: dropping undecodable entry", "err", decodeErr)
	case errors.Is(err, redis.Nil):
	default:
		slog.Warn("gig cache: redis get failed, reading through", "err", err)
	}

	ch := c.group.DoChan(gigListKey, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), backingTimeout)
		defer cancel()
		gigs, err := c.backing.ListGigs(shared)
		if err != nil {
			return nil, err
		}
		c.store(shared, gigs)
		return gigs, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]domain.Gig), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate drops the cached gig list.
func (c *RedisGigCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, gigListKey).Err(); err != nil {
		return fmt.Errorf("invalidate gig cache: %w", err)
	}
	return nil
}

func (c *RedisGigCache) store(ctx context.Context, gigs []domain.Gig) {
	raw, err := encodeGigs(gigs)
	if err != nil {
		slog.Warn("gig cache: encode failed", "err", err)
		return
	}
	if err := c.client.Set(ctx, gigListKey, raw, c.ttl).Err(); err != nil {
		slog.Warn("gig cache: redis set failed", "err", err)
	}
}

type cachedOrganizer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Genre string `json:"genre,omitempty"`
}

type cachedGig struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	Lat           float64          `json:"lat"`
	Lon           float64          `json:"lon"`
	StartsAt      time.Time        `json:"starts_at"`
	VenueAddress  string           `json:"venue_address"`
	Description   string           `json:"description"`
	CoverImageURL string           `json:"cover_image_url,omitempty"`
	Organizer     *cachedOrganizer `json:"organizer,omitempty"`
}

func encodeGigs(gigs []domain.Gig) ([]byte, error) {
	out := make([]cachedGig, 0, len(gigs))
	for _, g := range gigs {
		cg := cachedGig{
			ID:            g.ID,
			Title:         g.Title,
			Lat:           g.Location.Lat,
			Lon:           g.Location.Lon,
			StartsAt:      g.StartsAt,
			VenueAddress:  g.VenueAddress,
			Description:   g.Description,
			CoverImageURL: g.CoverImageURL,
		}

		switch o := g.Organizer.(type) {
		case domain.Musician:
			cg.Organizer = &cachedOrganizer{ID: o.ID, Name: o.Name, Role: domain.RoleMusician, Genre: o.Genre}
		case domain.Listener:
			cg.Organizer = &cachedOrganizer{ID: o.ID, Name: o.Name, Role: domain.RoleListener}
		}

		out = append(out, cg)
	}
	return json.Marshal(out)
}

func decodeGigs(raw []byte) ([]domain.Gig, error) {
	var cached []cachedGig
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, err
	}

	gigs := make([]domain.Gig, 0, len(cached))
	for _, cg := range cached {
		g := domain.Gig{
			ID:            cg.ID,
			Title:         cg.Title,
			Location:      domain.GeoPoint{Lat: cg.Lat, Lon: cg.Lon},
			StartsAt:      cg.StartsAt,
			VenueAddress:  cg.VenueAddress,
			Description:   cg.Description,
			CoverImageURL: cg.CoverImageURL,
		}
		if o := cg.Organizer; o != nil {
			acc, err := domain.AccountFromRecord(o.ID, o.Name, o.Role, o.Genre)
			if err != nil {
				return nil, err
			}
			g.Organizer = acc
		}
		gigs = append(gigs, g)
	}
	return gigs, nil
}
