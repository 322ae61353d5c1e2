package cache

import (
	"time"

	"github.com/lakeviewcottage/lodgify-calendar/pkg/lodgify"
)

// Entry is one cached aggregation result: the raw availability record and
// rate calendar as fetched, plus the error slot of the tuple. Err exists so
// a Set can carry the whole aggregation outcome; the store refuses to write
// entries with a non-nil Err, and the field is never serialized.
type Entry struct {
	Availability *lodgify.AvailabilityRecord `json:"availability"`
	Rates        *lodgify.RateCalendar       `json:"rates"`
	Err          error                       `json:"-"`

	// StoredAt is when the entry was written.
	StoredAt time.Time `json:"stored_at"`
}
