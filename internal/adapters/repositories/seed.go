package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"gig-finder-service/internal/domain"
	"gig-finder-service/internal/ports"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

type UserSeed struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Genre string `json:"genre"`
}

type GigSeed struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Lat           *float64 `json:"lat"`
	Lon           *float64 `json:"lon"`
	StartsAt      string   `json:"starts_at"`
	VenueAddress  string   `json:"venue_address"`
	Description   string   `json:"description"`
	OrganizerID   string   `json:"organizer_id"`
	CoverImageURL string   `json:"cover_image_url"`
}

type SeedFile struct {
	Users []UserSeed `json:"users"`
	Gigs  []GigSeed  `json:"gigs"`
}

// seedRow is a validated gig ready for insertion.
type seedRow struct {
	ID            string
	Title         string
	Location      domain.GeoPoint
	StartsAt      time.Time
	VenueAddress  string
	Description   string
	OrganizerID   string
	CoverImageURL string
}

// seedData is a validated seed file.
type seedData struct {
	Users []UserSeed
	Gigs  []seedRow
}

// Read and validate a seed file. Gigs without coordinates are geocoded from their
// venue address; geocoder may be nil when every gig carries lat/lon.
func loadSeed(ctx context.Context, jsonPath string, geocoder ports.Geocoder) (*seedData, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("seed gigs: read %q: %w", jsonPath, err)
	}

	var file SeedFile
	if err := json.Unmarshal(bytes, &file); err != nil {
		return nil, fmt.Errorf("seed gigs: parse json: %w", err)
	}

	return validateSeed(ctx, file, geocoder)
}

func validateSeed(ctx context.Context, file SeedFile, geocoder ports.Geocoder) (*seedData, error) {
	out := &seedData{
		Users: make([]UserSeed, 0, len(file.Users)),
		Gigs:  make([]seedRow, 0, len(file.Gigs)),
	}

	userIDs := make(map[string]struct{}, len(file.Users))
	for i, u := range file.Users {
		u.ID = strings.TrimSpace(u.ID)
		if u.ID == "" {
			return nil, fmt.Errorf("seed users: user at index %d: id cannot be empty", i+1)
		}
		if _, err := domain.AccountFromRecord(u.ID, u.Name, u.Role, u.Genre); err != nil {
			return nil, fmt.Errorf("seed users: user at index %d: %w", i+1, err)
		}
		userIDs[u.ID] = struct{}{}
		out.Users = append(out.Users, u)
	}

	for i, g := range file.Gigs {
		title := strings.TrimSpace(g.Title)
		if title == "" {
			return nil, fmt.Errorf("seed gigs: gig at index %d: title cannot be empty", i+1)
		}

		startsAt, err := time.Parse(time.RFC3339, strings.TrimSpace(g.StartsAt))
		if err != nil {
			return nil, fmt.Errorf("seed gigs: gig at index %d: invalid starts_at: %w", i+1, err)
		}

		if g.OrganizerID != "" {
			if _, ok := userIDs[g.OrganizerID]; !ok {
				return nil, fmt.Errorf("seed gigs: gig at index %d: unknown organizer %q", i+1, g.OrganizerID)
			}
		}

		loc, err := seedLocation(ctx, g, geocoder)
		if err != nil {
			return nil, fmt.Errorf("seed gigs: gig at index %d: %w", i+1, err)
		}

		id := strings.TrimSpace(g.ID)
		if id == "" {
			id = seedGigID(title, startsAt, g.VenueAddress)
		}

		out.Gigs = append(out.Gigs, seedRow{
			ID:            id,
			Title:         title,
			Location:      loc,
			StartsAt:      startsAt.UTC(),
			VenueAddress:  strings.TrimSpace(g.VenueAddress),
			Description:   g.Description,
			OrganizerID:   g.OrganizerID,
			CoverImageURL: g.CoverImageURL,
		})
	}

	return out, nil
}

// seedGigID derives a stable ID so reseeding updates rather than duplicates.
func seedGigID(title string, startsAt time.Time, venue string) string {
	key := title + "|" + startsAt.UTC().Format(time.RFC3339) + "|" + strings.TrimSpace(venue)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}

func seedLocation(ctx context.Context, g GigSeed, geocoder ports.Geocoder) (domain.GeoPoint, error) {
	if g.Lat != nil && g.Lon != nil {
		p := domain.GeoPoint{Lat: *g.Lat, Lon: *g.Lon}
		if err := p.Validate(); err != nil {
			return domain.GeoPoint{}, err
		}
		return p, nil
	}

	if strings.TrimSpace(g.VenueAddress) == "" {
		return domain.GeoPoint{}, errors.New("needs lat/lon or a venue_address")
	}
	if geocoder == nil {
		return domain.GeoPoint{}, fmt.Errorf("no coordinates for %q and no geocoder configured", g.VenueAddress)
	}

	p, err := geocoder.Geocode(ctx, g.VenueAddress)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("geocode venue %q: %w", g.VenueAddress, err)
	}
	return p, nil
}
