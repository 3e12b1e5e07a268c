package services

import (
	"errors"
	"gig-finder-service/internal/domain"
	"math"
	"testing"
)

var (
	jakarta = domain.GeoPoint{Lat: -6.200000, Lon: 106.816666}
	bandung = domain.GeoPoint{Lat: -6.914744, Lon: 107.609810}
)

func TestDistanceKmKnownDistances(t *testing.T) {
	tests := []struct {
		name      string
		a, b      domain.GeoPoint
		want      float64
		tolerance float64
	}{
		{
			name:      "one degree of latitude",
			a:         domain.GeoPoint{Lat: 0, Lon: 0},
			b:         domain.GeoPoint{Lat: 1, Lon: 0},
			want:      111.19,
			tolerance: 0.5,
		},
		{
			name:      "one degree of latitude away from equator",
			a:         domain.GeoPoint{Lat: 45, Lon: 12},
			b:         domain.GeoPoint{Lat: 46, Lon: 12},
			want:      111.19,
			tolerance: 0.5,
		},
		{
			name:      "jakarta to bandung",
			a:         jakarta,
			b:         bandung,
			want:      118.29,
			tolerance: 0.5,
		},
		{
			name:      "new york to london",
			a:         domain.GeoPoint{Lat: 40.7128, Lon: -74.0060},
			b:         domain.GeoPoint{Lat: 51.5074, Lon: -0.1278},
			want:      5570,
			tolerance: 10,
		},
		{
			name:      "antipodal points",
			a:         domain.GeoPoint{Lat: 0, Lon: 0},
			b:         domain.GeoPoint{Lat: 0, Lon: 180},
			want:      math.Pi * earthRadiusKm,
			tolerance: 0.001,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.a, tt.b)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("DistanceKm(%v, %v) = %.3f, want %.3f ± %.3f", tt.a, tt.b, got, tt.want, tt.tolerance)
			}
		})
	}
}

func TestDistanceKmSymmetryAndIdentity(t *testing.T) {
	points := []domain.GeoPoint{
		jakarta,
		bandung,
		{Lat: 0, Lon: 0},
		{Lat: 89.9, Lon: -179.9},
		{Lat: -45.5, Lon: 170.25},
		{Lat: 51.5074, Lon: -0.1278},
	}

	for _, a := range points {
		if d := DistanceKm(a, a); d != 0 {
			t.Errorf("DistanceKm(%v, %v) = %v, want 0", a, a, d)
		}
		for _, b := range points {
			ab := DistanceKm(a, b)
			ba := DistanceKm(b, a)
			if math.Abs(ab-ba) > 1e-9 {
				t.Errorf("asymmetric distance %v <-> %v: %v vs %v", a, b, ab, ba)
			}
			if ab < 0 {
				t.Errorf("negative distance %v -> %v: %v", a, b, ab)
			}
		}
	}
}

func TestCheckedDistanceKm(t *testing.T) {
	d, err := CheckedDistanceKm(jakarta, bandung)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != DistanceKm(jakarta, bandung) {
		t.Fatalf("checked distance %v differs from unchecked", d)
	}

	_, err = CheckedDistanceKm(jakarta, domain.GeoPoint{Lat: 95, Lon: 0})
	if !errors.Is(err, domain.ErrInvalidCoordinate) {
		t.Fatalf("error = %v, want ErrInvalidCoordinate", err)
	}

	_, err = CheckedDistanceKm(domain.GeoPoint{Lat: 0, Lon: -200}, jakarta)
	if !errors.Is(err, domain.ErrInvalidCoordinate) {
		t.Fatalf("error = %v, want ErrInvalidCoordinate", err)
	}
}
