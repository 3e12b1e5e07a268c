package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// RadiusSet is the discrete set of search radii (km) a caller may select.
type RadiusSet struct {
	values []float64
}

var (
	// DefaultRadii backs the discovery view.
	DefaultRadii = NewRadiusSet(1, 5, 10)

	// ExtendedRadii backs the map view and the HTTP API.
	ExtendedRadii = NewRadiusSet(1, 5, 10, 25, 100)
)

// NewRadiusSet returns a set of the given positive values in ascending order.
// Non-positive values and duplicates are dropped.
func NewRadiusSet(values ...float64) RadiusSet {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v <= 0 || slices.Contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	slices.Sort(out)
	return RadiusSet{values: out}
}

// Values returns a copy of the allowed radii in ascending order.
func (s RadiusSet) Values() []float64 {
	return slices.Clone(s.values)
}

func (s RadiusSet) Len() int { return len(s.values) }

func (s RadiusSet) Contains(km float64) bool {
	return slices.Contains(s.values, km)
}

// Default returns the smallest allowed radius, or 0 for an empty set.
func (s RadiusSet) Default() float64 {
	if len(s.values) == 0 {
		return 0
	}
	return s.values[0]
}

// Validate returns an error when km is not one of the allowed values.
func (s RadiusSet) Validate(km float64) error {
	if s.Contains(km) {
		return nil
	}
	return fmt.Errorf("radius %v km not allowed (allowed: %s)", km, s)
}

// Parse reads a radius from text and checks it against the set.
func (s RadiusSet) Parse(text string) (float64, error) {
	km, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid radius %q: %w", text, err)
	}
	if err := s.Validate(km); err != nil {
		return 0, err
	}
	return km, nil
}

func (s RadiusSet) String() string {
	parts := make([]string, 0, len(s.values))
	for _, v := range s.values {
		parts = append(parts, strconv.FormatFloat(v, 'f', -1, 64))
	}
	return strings.Join(parts, ", ")
}
