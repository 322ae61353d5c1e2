package cache

import (
	"fmt"

	"github.com/lakeviewcottage/lodgify-calendar/pkg/calendar"
)

// Key identifies one cached aggregation result. Origin is excluded on
// purpose; two requests differing only in caller identity share an entry.
type Key struct {
	PropertyID string
	RoomTypeID int

	// Start and End are ISO dates bounding the requested range.
	Start string
	End   string
}

// NewKey builds a cache key from request parameters.
func NewKey(propertyID string, roomTypeID int, rng calendar.DateRange) Key {
	return Key{
		PropertyID: propertyID,
		RoomTypeID: roomTypeID,
		Start:      calendar.FormatDate(rng.Start),
		End:        calendar.FormatDate(rng.End),
	}
}

// String generates a deterministic cache key string.
// Format: cal:<property>:<room type>:<start>:<end>
//
// Example:
//
//	cal:197244:257944:2025-06-01:2025-06-30
func (k Key) String() string {
	return fmt.Sprintf("cal:%s:%d:%s:%s", k.PropertyID, k.RoomTypeID, k.Start, k.End)
}
