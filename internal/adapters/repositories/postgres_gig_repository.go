package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"gig-finder-service/internal/domain"
	"gig-finder-service/internal/platform/obs"
	"time"
)

type PostgresGigRepository struct {
	db *sql.DB
}

func NewPostgresGigRepository(db *sql.DB) *PostgresGigRepository {
	return &PostgresGigRepository{db: db}
}

func (r *PostgresGigRepository) ListGigs(ctx context.Context) (_ []domain.Gig, err error) {
	defer obs.Time(ctx, "PostgresGigRepository.ListGigs")(&err)

	rows, err := r.db.QueryContext(ctx, selectGigsQuery)
	if err != nil {
		return nil, fmt.Errorf("list gigs: %w", err)
	}
	defer rows.Close()

	gigs := make([]domain.Gig, 0)
	for rows.Next() {
		var startsAt time.Time
		g, err := scanGig(rows, &startsAt, func(v any) (time.Time, error) {
			return v.(*time.Time).UTC(), nil
		})
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
