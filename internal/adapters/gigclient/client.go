// Package gigclient lists gigs from a running gig-finder server over HTTP.
package gigclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"gig-finder-service/internal/api/dto"
	"gig-finder-service/internal/domain"
	"gig-finder-service/internal/platform/httpx"
	"gig-finder-service/internal/platform/obs"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	http    *httpx.Client
	baseURL string
}

func New(baseURL string) (*Client, error) {
	return NewWithHTTP(baseURL, httpx.NewClient(10*time.Second))
}

func NewWithHTTP(baseURL string, hc *httpx.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("gig client: base url is empty")
	}
	if hc == nil {
		return nil, errors.New("gig client: http client is nil")
	}
	return &Client{http: hc, baseURL: baseURL}, nil
}

// ListGigs fetches GET /gigs. Transient failures are retried.
func (c *Client) ListGigs(ctx context.Context) (_ []domain.Gig, err error) {
	defer obs.Time(ctx, "gigclient.ListGigs")(&err)

	resp, err := c.http.DoWithRetry(ctx, func() (*http.Request, error) {
		req, err := httpx.NewJSONRequest(ctx, http.MethodGet, c.baseURL+"/gigs", nil)
		if err != nil {
			return nil, err
		}
		if id := obs.RequestID(ctx); id != "" {
			req.Header.Set("X-Request-ID", id)
		}
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list remote gigs: %w", err)
	}
	defer resp.Body.Close()

	var decoded dto.ListGigsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("list remote gigs: decode response: %w", err)
	}

	gigs := make([]domain.Gig, 0, len(decoded.Gigs))
	for _, g := range decoded.Gigs {
		gig, err := g.ToGig()
		if err != nil {
			return nil, fmt.Errorf("list remote gigs: gig %s: %w", g.ID, err)
		}
		gigs = append(gigs, gig)
	}
	return gigs, nil
}
