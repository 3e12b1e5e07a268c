package repositories

import (
	"database/sql"
	"fmt"
	"gig-finder-service/internal/domain"
	"time"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const selectGigsQuery = `
	SELECT
		g.id,
		g.title,
		g.lat,
		g.lon,
		g.starts_at,
		g.venue_address,
		g.description,
		g.cover_image_url,
		u.id,
		u.name,
		u.role,
		u.genre
	FROM gigs g
	LEFT JOIN users u ON u.id = g.organizer_id
	ORDER BY g.starts_at, g.id;
	`

// scanGig reads one joined gig/organizer row. parseTime converts the driver's
// starts_at representation into a time.Time.
func scanGig(rs rowScanner, dest any, parseTime func(any) (time.Time, error)) (domain.Gig, error) {
	var (
		g                                    domain.Gig
		userID, userName, userRole, userGenre sql.NullString
	)

	if err := rs.Scan(
		&g.ID,
		&g.Title,
		&g.Location.Lat,
		&g.Location.Lon,
		dest,
		&g.VenueAddress,
		&g.Description,
		&g.CoverImageURL,
		&userID,
		&userName,
		&userRole,
		&userGenre,
	); err != nil {
		return domain.Gig{}, err
	}

	startsAt, err := parseTime(dest)
	if err != nil {
		return domain.Gig{}, fmt.Errorf("gig %s: starts_at: %w", g.ID, err)
	}
	g.StartsAt = startsAt

	if userID.Valid {
		acc, err := domain.AccountFromRecord(userID.String, userName.String, userRole.String, userGenre.String)
		if err != nil {
			return domain.Gig{}, fmt.Errorf("gig %s: organizer: %w", g.ID, err)
		}
		g.Organizer = acc
	}

	return g, nil
}
