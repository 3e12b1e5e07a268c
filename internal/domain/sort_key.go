package domain

import (
	"fmt"
	"strings"
)

// SortKey selects the comparator used to order nearby gigs.
type SortKey int

const (
	SortByDistance  SortKey = iota // default
	SortByStartTime
)

// ParseSortKey parses "distance" or "time"/"start_time". Empty input yields the default.
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "distance":
		return SortByDistance, nil
	case "time", "start_time", "date":
		return SortByStartTime, nil
	default:
		return SortByDistance, fmt.Errorf("invalid sort key: %s (must be distance or time)", s)
	}
}

func (k SortKey) String() string {
	switch k {
	case SortByDistance:
		return "distance"
	case SortByStartTime:
		return "start_time"
	default:
		return fmt.Sprintf("SortKey(%d)", int(k))
	}
}
