package dto

import (
	"gig-finder-service/internal/domain"
	"time"
)

type OrganizerResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Genre string `json:"genre,omitempty"`
}

type GigResponse struct {
	ID            string             `json:"id"`
	Title         string             `json:"title"`
	Lat           float64            `json:"lat"`
	Lon           float64            `json:"lon"`
	StartsAt      time.Time          `json:"starts_at"`
	VenueAddress  string             `json:"venue_address"`
	Description   string             `json:"description"`
	CoverImageURL string             `json:"cover_image_url,omitempty"`
	Organizer     *OrganizerResponse `json:"organizer,omitempty"`
	Upcoming      bool               `json:"upcoming"`
}

type ListGigsResponse struct {
	Gigs []GigResponse `json:"gigs"`
}

type NearbyGigResponse struct {
	GigResponse
	DistanceKm float64 `json:"distance_km"`
}

type PointResponse struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type NearbyResponse struct {
	Reference PointResponse       `json:"reference"`
	RadiusKm  float64             `json:"radius_km"`
	Sort      string              `json:"sort"`
	Radii     []float64           `json:"radii"`
	Count     int                 `json:"count"`
	Gigs      []NearbyGigResponse `json:"gigs"`
}

// FromGig maps a domain gig for the wire. Upcoming is evaluated against now.
func FromGig(g domain.Gig, now time.Time) GigResponse {
	res := GigResponse{
		ID:            g.ID,
		Title:         g.Title,
		Lat:           g.Location.Lat,
		Lon:           g.Location.Lon,
		StartsAt:      g.StartsAt,
		VenueAddress:  g.VenueAddress,
		Description:   g.Description,
		CoverImageURL: g.CoverImageURL,
		Upcoming:      g.IsUpcoming(now),
	}

	switch o := g.Organizer.(type) {
	case domain.Musician:
		res.Organizer = &OrganizerResponse{ID: o.ID, Name: o.Name, Role: domain.RoleMusician, Genre: o.Genre}
	case domain.Listener:
		res.Organizer = &OrganizerResponse{ID: o.ID, Name: o.Name, Role: domain.RoleListener}
	}

	return res
}

// ToGig maps a wire gig back into the domain.
func (r GigResponse) ToGig() (domain.Gig, error) {
	g := domain.Gig{
		ID:            r.ID,
		Title:         r.Title,
		Location:      domain.GeoPoint{Lat: r.Lat, Lon: r.Lon},
		StartsAt:      r.StartsAt,
		VenueAddress:  r.VenueAddress,
		Description:   r.Description,
		CoverImageURL: r.CoverImageURL,
	}

	if o := r.Organizer; o != nil {
		acc, err := domain.AccountFromRecord(o.ID, o.Name, o.Role, o.Genre)
		if err != nil {
			return domain.Gig{}, err
		}
		g.Organizer = acc
	}

	return g, nil
}
