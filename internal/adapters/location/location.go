package location

import (
	"context"
	"errors"
	"fmt"
	"gig-finder-service/internal/domain"
	"gig-finder-service/internal/ports"
)

// Fixed always reports the same position. Useful when the caller supplies
// explicit coordinates.
type Fixed struct {
	Point domain.GeoPoint
}

func (f Fixed) CurrentPosition(ctx context.Context) (domain.GeoPoint, error) {
	if err := ctx.Err(); err != nil {
		return domain.GeoPoint{}, err
	}
	if err := f.Point.Validate(); err != nil {
		return domain.GeoPoint{}, err
	}
	return f.Point, nil
}

// AddressLocator resolves a typed address into the user's position.
type AddressLocator struct {
	geocoder ports.Geocoder
	address  string
}

func NewAddressLocator(geocoder ports.Geocoder, address string) (*AddressLocator, error) {
	if geocoder == nil {
		return nil, errors.New("address locator: geocoder is nil")
	}
	if address == "" {
		return nil, errors.New("address locator: address is empty")
	}
	return &AddressLocator{geocoder: geocoder, address: address}, nil
}

func (a *AddressLocator) CurrentPosition(ctx context.Context) (domain.GeoPoint, error) {
	p, err := a.geocoder.Geocode(ctx, a.address)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("locate %q: %w", a.address, err)
	}
	return p, nil
}

// Acquirer is a callback-style position source: it eventually calls exactly
// one of onSuccess or onError.
type Acquirer func(onSuccess func(domain.GeoPoint), onError func(error))

// FromCallback adapts an Acquirer into a context-aware LocationSource.
// A result arriving after ctx is done is dropped.
func FromCallback(acquire Acquirer) ports.LocationSource {
	return callbackSource(acquire)
}

type callbackSource Acquirer

type positionResult struct {
	point domain.GeoPoint
	err   error
}

func (acquire callbackSource) CurrentPosition(ctx context.Context) (domain.GeoPoint, error) {
	// Buffered so a late callback never blocks the acquirer.
	ch := make(chan positionResult, 1)
	deliver := func(r positionResult) {
		select {
		case ch <- r:
		default:
		}
	}

	go acquire(
		func(p domain.GeoPoint) { deliver(positionResult{point: p}) },
		func(err error) { deliver(positionResult{err: err}) },
	)

	select {
	case <-ctx.Done():
		return domain.GeoPoint{}, ctx.Err()
	case r := <-ch:
		return r.point, r.err
	}
}
