package domain

import "errors"

var (
	// ErrInvalidCoordinate marks a latitude/longitude outside the valid ranges.
	ErrInvalidCoordinate = errors.New("invalid coordinate")

	// ErrLocationUnavailable covers geolocation denial, lack of support and timeouts.
	ErrLocationUnavailable = errors.New("location unavailable")

	// ErrDataFetchFailed marks a candidate gig set that could not be retrieved.
	ErrDataFetchFailed = errors.New("data fetch failed")

	// ErrNotFound is returned by lookups that match nothing.
	ErrNotFound = errors.New("not found")
)
