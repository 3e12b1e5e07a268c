package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"gig-finder-service/internal/platform/httpx"
	"gig-finder-service/internal/platform/obs"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// expirySkew renews tokens slightly before the server would reject them.
const expirySkew = 30 * time.Second

// TokenSource obtains client-credentials access tokens and caches them until
// shortly before expiry. Concurrent callers share one refresh.
type TokenSource struct {
	http         *httpx.Client
	tokenURL     string
	clientID     string
	clientSecret string
	now          func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
	group   singleflight.Group
}

type TokenOption func(*TokenSource)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) TokenOption {
	return func(ts *TokenSource) { ts.now = now }
}

func WithTokenHTTPClient(c *httpx.Client) TokenOption {
	return func(ts *TokenSource) { ts.http = c }
}

func NewTokenSource(tokenURL, clientID, clientSecret string, opts ...TokenOption) (*TokenSource, error) {
	if tokenURL == "" || clientID == "" || clientSecret == "" {
		return nil, errors.New("catalog token source: token url, client id and secret are required")
	}

	ts := &TokenSource{
		http:         httpx.NewClient(10 * time.Second),
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(ts)
	}
	return ts, nil
}

// Token returns a valid access token, fetching a new one when needed.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	if ts.token != "" && ts.now().Before(ts.expires) {
		tok := ts.token
		ts.mu.Unlock()
		return tok, nil
	}
	ts.mu.Unlock()

	// The shared refresh outlives any single caller; each caller only stops waiting.
	ch := ts.group.DoChan("token", func() (any, error) {
		return ts.refresh(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", fmt.Errorf("catalog token: %w", ctx.Err())
	}
}

// Invalidate drops the cached token so the next Token call refreshes.
func (ts *TokenSource) Invalidate() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.token = ""
	ts.expires = time.Time{}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func (ts *TokenSource) refresh(ctx context.Context) (_ string, err error) {
	defer obs.Time(ctx, "catalog.token.refresh")(&err)

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	body := form.Encode()

	resp, err := ts.http.DoWithRetry(ctx, func() (*http.Request, error) {
		req, err := httpx.NewJSONRequest(ctx, http.MethodPost, ts.tokenURL, strings.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.SetBasicAuth(ts.clientID, ts.clientSecret)
		return req, nil
	})
	if err != nil {
		return "", fmt.Errorf("catalog token: %w", err)
	}
	defer resp.Body.Close()

	var decoded tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("catalog token: decode response: %w", err)
	}
	if decoded.AccessToken == "" {
		return "", errors.New("catalog token: empty access token")
	}

	lifetime := time.Duration(decoded.ExpiresIn)*time.Second - expirySkew
	if lifetime < 0 {
		lifetime = 0
	}

	ts.mu.Lock()
	ts.token = decoded.AccessToken
	ts.expires = ts.now().Add(lifetime)
	ts.mu.Unlock()

	return decoded.AccessToken, nil
}
