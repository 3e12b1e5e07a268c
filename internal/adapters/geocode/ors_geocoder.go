package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"gig-finder-service/internal/domain"
	"gig-finder-service/internal/platform/httpx"
	"gig-finder-service/internal/platform/obs"
	"net/http"
	"strings"
	"time"
)

const defaultORSBaseURL = "https://api.openrouteservice.org"

// ORSGeocoder resolves venue addresses through OpenRouteService (/geocode/search).
// It is safe for concurrent use.
type ORSGeocoder struct {
	http    *httpx.Client
	apiKey  string
	baseURL string
	country string
}

type Option func(*ORSGeocoder)

// WithBaseURL points the geocoder at another ORS deployment.
func WithBaseURL(u string) Option {
	return func(o *ORSGeocoder) { o.baseURL = strings.TrimRight(u, "/") }
}

// WithCountry restricts results to an ISO country code.
func WithCountry(code string) Option {
	return func(o *ORSGeocoder) { o.country = code }
}

func WithHTTPClient(c *httpx.Client) Option {
	return func(o *ORSGeocoder) { o.http = c }
}

func NewORSGeocoder(apiKey string, opts ...Option) (*ORSGeocoder, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	g := &ORSGeocoder{
		http:    httpx.NewClient(10 * time.Second),
		apiKey:  apiKey,
		baseURL: defaultORSBaseURL,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Normalize collapses whitespace so equivalent addresses share a cache key.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

func (o *ORSGeocoder) Geocode(ctx context.Context, address string) (_ domain.GeoPoint, err error) {
	defer obs.Time(ctx, "ors.Geocode")(&err)

	norm := Normalize(address)
	if norm == "" {
		return domain.GeoPoint{}, errors.New("geocode: address must be non-empty")
	}

	endpoint := o.baseURL + "/geocode/search"

	resp, err := o.http.DoWithRetry(ctx, func() (*http.Request, error) {
		req, err := httpx.NewJSONRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", o.apiKey)

		q := req.URL.Query()
		q.Set("text", norm)
		q.Set("size", "1")
		if o.country != "" {
			q.Set("boundary.country", o.country)
		}
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("geocode %q: execute request: %w", norm, err)
	}
	defer resp.Body.Close()

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.GeoPoint{}, fmt.Errorf("geocode %q: decode response: %w", norm, err)
	}

	if len(decoded.Features) == 0 {
		return domain.GeoPoint{}, fmt.Errorf("geocode %q: %w", norm, domain.ErrNotFound)
	}

	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) != 2 {
		return domain.GeoPoint{}, fmt.Errorf("geocode %q: invalid coordinate format", norm)
	}

	p := domain.GeoPoint{Lon: coords[0], Lat: coords[1]}
	if err := p.Validate(); err != nil {
		return domain.GeoPoint{}, fmt.Errorf("geocode %q: %w", norm, err)
	}
	return p, nil
}

// GeocodeMany resolves each distinct address once. Keys of the result are normalized.
func (o *ORSGeocoder) GeocodeMany(ctx context.Context, addresses []string) (map[string]domain.GeoPoint, error) {
	out := make(map[string]domain.GeoPoint, len(addresses))
	for _, a := range addresses {
		norm := Normalize(a)
		if norm == "" {
			continue
		}
		if _, ok := out[norm]; ok {
			continue
		}

		p, err := o.Geocode(ctx, norm)
		if err != nil {
			return nil, err
		}
		out[norm] = p
	}
	return out, nil
}
