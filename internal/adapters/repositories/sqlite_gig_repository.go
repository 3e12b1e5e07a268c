package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"gig-finder-service/internal/domain"
	"gig-finder-service/internal/platform/obs"
	"time"
)

type SqliteGigRepository struct {
	db *sql.DB
}

func NewSqliteGigRepository(db *sql.DB) *SqliteGigRepository {
	return &SqliteGigRepository{db: db}
}

// Retrieve every gig with its organizer, ordered by start time.
func (r *SqliteGigRepository) ListGigs(ctx context.Context) (_ []domain.Gig, err error) {
	defer obs.Time(ctx, "SqliteGigRepository.ListGigs")(&err)

	rows, err := r.db.QueryContext(ctx, selectGigsQuery)
	if err != nil {
		return nil, fmt.Errorf("list gigs: %w", err)
	}
	defer rows.Close()

	gigs := make([]domain.Gig, 0)
	for rows.Next() {
		var startsAt string
		g, err := scanGig(rows, &startsAt, parseSqliteTime)
		if err != nil {
			return nil, fmt.Errorf("list gigs: %w", err)
		}
		gigs = append(gigs, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list gigs: %w", err)
	}

	return gigs, nil
}

func parseSqliteTime(v any) (time.Time, error) {
	s, ok := v.(*string)
	if !ok {
		return time.Time{}, fmt.Errorf("unexpected type %T", v)
	}
	return time.Parse(time.RFC3339, *s)
}
