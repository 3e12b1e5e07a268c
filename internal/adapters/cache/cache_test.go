package cache

import (
	"context"
	"errors"
	"gig-finder-service/internal/adapters/repositories"
	"gig-finder-service/internal/domain"
	"gig-finder-service/internal/platform/db"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSqliteGeocodeCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	conn, err := db.OpenSqlite(":memory:")
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, repositories.InitSchema(conn))

	c := NewSqliteGeocodeCache(conn)

	got, err := c.GetMany(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, c.PutMany(ctx, map[string]domain.GeoPoint{
		"Jl. Braga 1, Bandung": {Lat: -6.9175, Lon: 107.6191},
	}))

	got, err = c.GetMany(ctx, []string{"Jl. Braga 1, Bandung", " Jl. Braga 1, Bandung ", "unknown", ""})
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.GeoPoint{
		"Jl. Braga 1, Bandung": {Lat: -6.9175, Lon: 107.6191},
	}, got)

	err = c.PutMany(ctx, map[string]domain.GeoPoint{" ": {}})
	assert.Error(t, err)
}

func TestSqliteGeocodeCache_NilDB(t *testing.T) {
	c := NewSqliteGeocodeCache(nil)
	_, err := c.GetMany(context.Background(), []string{"a"})
	assert.Error(t, err)
	assert.Error(t, c.PutMany(context.Background(), map[string]domain.GeoPoint{"a": {}}))
}

type countingRepo struct {
	gigs  []domain.Gig
	err   error
	calls atomic.Int32
	delay time.Duration
}

func (r *countingRepo) ListGigs(ctx context.Context) ([]domain.Gig, error) {
	r.calls.Add(1)
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return r.gigs, nil
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func sampleGigs() []domain.Gig {
	return []domain.Gig{
		{
			ID:        "g1",
			Title:     "Jazz Night",
			Location:  domain.GeoPoint{Lat: -6.9, Lon: 107.6},
			StartsAt:  time.Date(2026, 6, 1, 19, 0, 0, 0, time.UTC),
			Organizer: domain.Musician{ID: "m1", Name: "Trio", Genre: "jazz"},
		},
		{
			ID:       "g2",
			Title:    "Open Mic",
			Location: domain.GeoPoint{Lat: -6.2, Lon: 106.8},
			StartsAt: time.Date(2026, 6, 2, 19, 0, 0, 0, time.UTC),
		},
	}
}

func TestRedisGigCache_ReadThrough(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	backing := &countingRepo{gigs: sampleGigs()}

	c, err := NewRedisGigCache(client, backing, time.Minute)
	require.NoError(t, err)

	first, err := c.ListGigs(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleGigs(), first)
	assert.True(t, mr.Exists(gigListKey))

	second, err := c.ListGigs(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleGigs(), second)
	assert.EqualValues(t, 1, backing.calls.Load())

	mr.FastForward(2 * time.Minute)
	_, err = c.ListGigs(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, backing.calls.Load())

	require.NoError(t, c.Invalidate(ctx))
	assert.False(t, mr.Exists(gigListKey))
}

func TestRedisGigCache_BackingError(t *testing.T) {
	_, client := newRedis(t)
	boom := errors.New("db down")
	c, err := NewRedisGigCache(client, &countingRepo{err: boom}, time.Minute)
	require.NoError(t, err)

	_, err = c.ListGigs(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestRedisGigCache_RedisDownReadsThrough(t *testing.T) {
	mr, client := newRedis(t)
	backing := &countingRepo{gigs: sampleGigs()}
	c, err := NewRedisGigCache(client, backing, time.Minute)
	require.NoError(t, err)

	mr.Close()

	gigs, err := c.ListGigs(context.Background())
	require.NoError(t, err)
	assert.Len(t, gigs, 2)
}

func TestRedisGigCache_CoalescesMisses(t *testing.T) {
	_, client := newRedis(t)
	backing := &countingRepo{gigs: sampleGigs(), delay: 50 * time.Millisecond}
	c, err := NewRedisGigCache(client, backing, time.Minute)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.ListGigs(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Less(t, backing.calls.Load(), int32(8))
}

func TestRedisGigCache_CancelledCallerDoesNotFailOthers(t *testing.T) {
	mr, client := newRedis(t)
	backing := &countingRepo{gigs: sampleGigs(), delay: 100 * time.Millisecond}
	c, err := NewRedisGigCache(client, backing, time.Minute)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.ListGigs(ctx)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return backing.calls.Load() == 1 }, time.Second, time.Millisecond)

	time.AfterFunc(20*time.Millisecond, cancel)
	gigs, err := c.ListGigs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleGigs(), gigs)

	assert.ErrorIs(t, <-firstErr, context.Canceled)
	assert.EqualValues(t, 1, backing.calls.Load())
	assert.True(t, mr.Exists(gigListKey), "shared miss must still populate the cache")
}

func TestNewRedisGigCache_Validation(t *testing.T) {
	_, client := newRedis(t)
	_, err := NewRedisGigCache(nil, &countingRepo{}, time.Minute)
	assert.Error(t, err)
	_, err = NewRedisGigCache(client, nil, time.Minute)
	assert.Error(t, err)
	_, err = NewRedisGigCache(client, &countingRepo{}, 0)
	assert.Error(t, err)

	_, err = NewRedisClient("not a url")
	assert.Error(t, err)
}
