package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"gig-finder-service/internal/domain"
	"gig-finder-service/internal/platform/httpx"
	"gig-finder-service/internal/platform/obs"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 50
)

// Client searches the music catalog's track index.
type Client struct {
	http    *httpx.Client
	tokens  *TokenSource
	baseURL string
}

func NewClient(baseURL string, tokens *TokenSource) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("catalog client: base url is empty")
	}
	if tokens == nil {
		return nil, errors.New("catalog client: token source is nil")
	}
	return &Client{
		http:    httpx.NewClient(10 * time.Second),
		tokens:  tokens,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

type searchResponse struct {
	Tracks struct {
		Items []struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"artists"`
			Album struct {
				Name   string `json:"name"`
				Images []struct {
					URL string `json:"url"`
				} `json:"images"`
			} `json:"album"`
			PreviewURL   string `json:"preview_url"`
			ExternalURLs struct {
				Spotify string `json:"spotify"`
			} `json:"external_urls"`
		} `json:"items"`
	} `json:"tracks"`
}

// SearchTracks runs a track search. limit is clamped to [1, MaxSearchLimit];
// 0 means DefaultSearchLimit. A rejected token is refreshed once.
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) (_ []domain.Track, err error) {
	defer obs.Time(ctx, "catalog.SearchTracks")(&err)

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("search tracks: query is empty")
	}
	switch {
	case limit <= 0:
		limit = DefaultSearchLimit
	case limit > MaxSearchLimit:
		limit = MaxSearchLimit
	}

	resp, err := c.search(ctx, query, limit)
	var se *httpx.StatusError
	if errors.As(err, &se) && se.Code == http.StatusUnauthorized {
		c.tokens.Invalidate()
		resp, err = c.search(ctx, query, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("search tracks %q: %w", query, err)
	}
	defer resp.Body.Close()

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("search tracks %q: decode response: %w", query, err)
	}

	tracks := make([]domain.Track, 0, len(decoded.Tracks.Items))
	for _, it := range decoded.Tracks.Items {
		t := domain.Track{
			ID:          it.ID,
			Name:        it.Name,
			Album:       it.Album.Name,
			PreviewURL:  it.PreviewURL,
			ExternalURL: it.ExternalURLs.Spotify,
		}
		for _, a := range it.Artists {
			t.Artists = append(t.Artists, a.Name)
		}
		if len(it.Album.Images) > 0 {
			t.ImageURL = it.Album.Images[0].URL
		}
		tracks = append(tracks, t)
	}
	return tracks, nil
}

func (c *Client) search(ctx context.Context, query string, limit int) (*http.Response, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	return c.http.DoWithRetry(ctx, func() (*http.Request, error) {
		req, err := httpx.NewJSONRequest(ctx, http.MethodGet, c.baseURL+"/v1/search", nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)

		q := req.URL.Query()
		q.Set("q", query)
		q.Set("type", "track")
		q.Set("limit", strconv.Itoa(limit))
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
}
