package domain

import "time"

// Represents a single live performance listing.
// A Gig is created by its organizer and is read-only for the proximity pipeline.
type Gig struct {
	ID            string
	Title         string
	Location      GeoPoint
	StartsAt      time.Time
	VenueAddress  string
	Description   string
	Organizer     Account
	CoverImageURL string
}

// IsUpcoming reports whether the gig starts at or after now.
func (g Gig) IsUpcoming(now time.Time) bool {
	return !g.StartsAt.Before(now)
}

// OrganizerName returns the organizer's display name, or "" when the gig has none.
func (g Gig) OrganizerName() string {
	if g.Organizer == nil {
		return ""
	}
	return g.Organizer.DisplayName()
}

// A Gig plus its distance from the reference point of the current query.
// Produced fresh on every filter pass and never persisted.
type AnnotatedGig struct {
	Gig
	DistanceKm float64
}
