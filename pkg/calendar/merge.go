package calendar

import (
	"time"

	"github.com/lakeviewcottage/lodgify-calendar/pkg/lodgify"
)

const (
	// DefaultCurrencyCode is assumed when rate settings carry no currency.
	DefaultCurrencyCode = "USD"

	// DefaultAdvanceNoticeDays is the minimum booking lead time assumed
	// when rate settings carry no advance_notice_days.
	DefaultAdvanceNoticeDays = 2
)

// CalendarDay is the merged verdict for a single date. Available is nil
// until some availability period covers the day; Price is set only on
// available days.
type CalendarDay struct {
	Available *bool    `json:"available,omitempty"`
	Price     *float64 `json:"price,omitempty"`
}

// AggregatedCalendar is the merged per-day availability and price view.
// Dates is keyed by ISO date; Go's JSON encoder sorts map keys, so the
// serialized order is chronological.
type AggregatedCalendar struct {
	StartDate    string                  `json:"startDate"`
	EndDate      string                  `json:"endDate"`
	PropertyID   string                  `json:"propertyId"`
	RoomTypeID   int                     `json:"room_type_id"`
	CurrencyCode string                  `json:"currency_code"`
	Dates        map[string]*CalendarDay `json:"dates"`
}

// MergeInput carries everything the merge engine needs. Today controls the
// advance-notice cutoff; the zero value means the current wall-clock date.
type MergeInput struct {
	Range        DateRange
	PropertyID   string
	Availability *lodgify.AvailabilityRecord
	Rates        *lodgify.RateCalendar
	Today        time.Time
}

// Merge reconciles period-based availability with day-based pricing into one
// calendar covering every day of the range. It is pure apart from reading
// the clock when Today is unset.
//
// A day is available only when a period marks it available and it falls on
// or after today plus the advance notice lead time. When periods overlap,
// the later-supplied period's verdict wins. Prices attach only to available
// days, from the first price entry of the day's rate item; zero or absent
// prices are skipped.
func Merge(in MergeInput) *AggregatedCalendar {
	today := in.Today
	if today.IsZero() {
		today = time.Now()
	}
	today = Midnight(today)

	currency := DefaultCurrencyCode
	noticeDays := DefaultAdvanceNoticeDays
	if in.Rates != nil {
		if in.Rates.RateSettings.CurrencyCode != "" {
			currency = in.Rates.RateSettings.CurrencyCode
		}
		if in.Rates.RateSettings.AdvanceNoticeDays != nil {
			noticeDays = *in.Rates.RateSettings.AdvanceNoticeDays
		}
	}
	firstBookable := today.AddDate(0, 0, noticeDays)

	out := &AggregatedCalendar{
		StartDate:    FormatDate(in.Range.Start),
		EndDate:      FormatDate(in.Range.End),
		PropertyID:   in.PropertyID,
		CurrencyCode: currency,
		Dates:        make(map[string]*CalendarDay, in.Range.Days()),
	}
	if in.Availability != nil {
		out.RoomTypeID = in.Availability.RoomTypeID
	}

	for day := in.Range.Start; !day.After(in.Range.End); day = day.AddDate(0, 0, 1) {
		out.Dates[FormatDate(day)] = &CalendarDay{}
	}

	if in.Availability != nil {
		for _, period := range in.Availability.Periods {
			applyPeriod(out.Dates, in.Range, period, firstBookable)
		}
	}

	if in.Rates != nil {
		for _, item := range in.Rates.CalendarItems {
			applyRateItem(out.Dates, item)
		}
	}

	return out
}

// applyPeriod walks one availability period day by day, inclusive on both
// ends, and records each day's verdict. Days outside the requested range
// are ignored. Later periods overwrite earlier ones.
func applyPeriod(dates map[string]*CalendarDay, rng DateRange, period lodgify.AvailabilityPeriod, firstBookable time.Time) {
	start, err := ParseDate(period.Start)
	if err != nil {
		return
	}
	end, err := ParseDate(period.End)
	if err != nil {
		return
	}

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if !rng.Contains(day) {
			continue
		}
		available := period.IsAvailable() && !day.Before(firstBookable)
		dates[FormatDate(day)].Available = &available
	}
}

// applyRateItem attaches a price to its day if, and only if, that day has
// already been marked available.
func applyRateItem(dates map[string]*CalendarDay, item lodgify.RateCalendarItem) {
	if item.Date == "" {
		return
	}
	day, ok := dates[item.Date]
	if !ok {
		return
	}
	if day.Available == nil || !*day.Available {
		return
	}
	if len(item.Prices) == 0 {
		return
	}
	price := item.Prices[0].PricePerDay
	if price == 0 {
		return
	}
	day.Price = &price
}
