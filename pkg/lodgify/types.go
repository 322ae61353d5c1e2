package lodgify

// availableCode is the periods[].available value that means the span is
// bookable; Lodgify encodes the verdict as an integer.
const availableCode = 1

// AvailabilityRecord is one per-room-type element of the v2 availability
// response array.
type AvailabilityRecord struct {
	RoomTypeID int                  `json:"room_type_id"`
	Periods    []AvailabilityPeriod `json:"periods"`
}

// AvailabilityPeriod is a contiguous date span with a single availability
// verdict. Start and End are inclusive ISO dates.
type AvailabilityPeriod struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Available int    `json:"available"`
}

// IsAvailable reports whether the period's verdict is "bookable".
func (p AvailabilityPeriod) IsAvailable() bool {
	return p.Available == availableCode
}

// RateCalendar is the v2 rates/calendar response payload.
type RateCalendar struct {
	RateSettings  RateSettings       `json:"rate_settings"`
	CalendarItems []RateCalendarItem `json:"calendar_items"`
}

// RateSettings carries property-level pricing configuration.
// AdvanceNoticeDays is a pointer so an explicit zero survives decoding;
// an absent field falls back to the merge engine's default.
type RateSettings struct {
	CurrencyCode      string `json:"currency_code"`
	AdvanceNoticeDays *int   `json:"advance_notice_days"`
}

// RateCalendarItem is one day's pricing. Date may be empty; items without a
// date contribute nothing. Only the first entry of Prices is consulted.
type RateCalendarItem struct {
	Date   string      `json:"date"`
	Prices []RatePrice `json:"prices"`
}

// RatePrice is a single price entry for a day.
type RatePrice struct {
	PricePerDay float64 `json:"price_per_day"`
}
