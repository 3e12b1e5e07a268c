package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type catalogServer struct {
	tokenCalls  atomic.Int32
	searchCalls atomic.Int32
	tokenDelay  time.Duration
	rejectOnce  atomic.Bool
	srv         *httptest.Server
}

func newCatalogServer(t *testing.T) *catalogServer {
	t.Helper()
	cs := &catalogServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		id, secret, ok := r.BasicAuth()
		if !ok || id != "id" || secret != "secret" || r.FormValue("grant_type") != "client_credentials" {
			http.Error(w, "bad client", http.StatusUnauthorized)
			return
		}
		n := cs.tokenCalls.Add(1)
		if cs.tokenDelay > 0 {
			time.Sleep(cs.tokenDelay)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-` + string(rune('0'+n)) + `","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		cs.searchCalls.Add(1)
		if cs.rejectOnce.CompareAndSwap(true, false) || r.Header.Get("Authorization") == "" {
			http.Error(w, "expired", http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("type") != "track" {
			http.Error(w, "bad type", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tracks":{"items":[{
			"id":"t1","name":"Bengawan Solo",
			"artists":[{"name":"Gesang"},{"name":"Waldjinah"}],
			"album":{"name":"Keroncong","images":[{"url":"https://img/1"}]},
			"preview_url":"https://preview/1",
			"external_urls":{"spotify":"https://open/1"}}]}}`))
	})
	cs.srv = httptest.NewServer(mux)
	t.Cleanup(cs.srv.Close)
	return cs
}

func TestTokenSource_CachesUntilExpiry(t *testing.T) {
	cs := newCatalogServer(t)
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}

	ts, err := NewTokenSource(cs.srv.URL+"/token", "id", "secret", WithClock(clock.Now))
	require.NoError(t, err)

	tok, err := ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	clock.Advance(time.Hour - expirySkew - time.Second)
	tok, err = ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.EqualValues(t, 1, cs.tokenCalls.Load())

	clock.Advance(2 * time.Second)
	tok, err = ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok)
	assert.EqualValues(t, 2, cs.tokenCalls.Load())
}

func TestTokenSource_SingleFlightRefresh(t *testing.T) {
	cs := newCatalogServer(t)
	cs.tokenDelay = 50 * time.Millisecond

	ts, err := NewTokenSource(cs.srv.URL+"/token", "id", "secret")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := ts.Token(context.Background())
			assert.NoError(t, err)
			assert.NotEmpty(t, tok)
		}()
	}
	wg.Wait()

	assert.Less(t, cs.tokenCalls.Load(), int32(10))
}

func TestTokenSource_CancelledCallerDoesNotFailOthers(t *testing.T) {
	cs := newCatalogServer(t)
	cs.tokenDelay = 100 * time.Millisecond

	ts, err := NewTokenSource(cs.srv.URL+"/token", "id", "secret")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := ts.Token(ctx)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return cs.tokenCalls.Load() == 1 }, time.Second, time.Millisecond)

	time.AfterFunc(20*time.Millisecond, cancel)
	tok, err := ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	assert.ErrorIs(t, <-firstErr, context.Canceled)
	assert.EqualValues(t, 1, cs.tokenCalls.Load())
}

func TestTokenSource_BadCredentials(t *testing.T) {
	cs := newCatalogServer(t)
	ts, err := NewTokenSource(cs.srv.URL+"/token", "id", "wrong")
	require.NoError(t, err)

	_, err = ts.Token(context.Background())
	assert.Error(t, err)

	_, err = NewTokenSource("", "id", "secret")
	assert.Error(t, err)
}

func TestClient_SearchTracks(t *testing.T) {
	cs := newCatalogServer(t)
	ts, err := NewTokenSource(cs.srv.URL+"/token", "id", "secret")
	require.NoError(t, err)
	c, err := NewClient(cs.srv.URL, ts)
	require.NoError(t, err)

	tracks, err := c.SearchTracks(context.Background(), "bengawan", 0)
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "Bengawan Solo", tracks[0].Name)
	assert.Equal(t, []string{"Gesang", "Waldjinah"}, tracks[0].Artists)
	assert.Equal(t, "Keroncong", tracks[0].Album)
	assert.Equal(t, "https://img/1", tracks[0].ImageURL)
	assert.Equal(t, "https://open/1", tracks[0].ExternalURL)

	_, err = c.SearchTracks(context.Background(), "  ", 5)
	assert.Error(t, err)
}

func TestClient_RefreshesRejectedToken(t *testing.T) {
	cs := newCatalogServer(t)
	ts, err := NewTokenSource(cs.srv.URL+"/token", "id", "secret")
	require.NoError(t, err)
	c, err := NewClient(cs.srv.URL, ts)
	require.NoError(t, err)

	cs.rejectOnce.Store(true)
	tracks, err := c.SearchTracks(context.Background(), "solo", 3)
	require.NoError(t, err)
	assert.Len(t, tracks, 1)
	assert.EqualValues(t, 2, cs.tokenCalls.Load())
	assert.EqualValues(t, 2, cs.searchCalls.Load())
}
