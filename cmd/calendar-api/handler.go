package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lakeviewcottage/lodgify-calendar/pkg/aggregator"
	"github.com/lakeviewcottage/lodgify-calendar/pkg/calendar"
	"github.com/lakeviewcottage/lodgify-calendar/pkg/credentials"
	"github.com/lakeviewcottage/lodgify-calendar/pkg/lodgify"
)

// calendarQuery is the parsed and validated request.
type calendarQuery struct {
	propertyID string
	roomTypeID int
	dateRange  calendar.DateRange
}

type errorBody struct {
	Error string `json:"error"`
}

// calendarHandler serves GET /v1/calendar: origin check, query validation,
// aggregation, merge, JSON envelope.
func calendarHandler(agg *aggregator.Aggregator, corsWhitelist string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin, allowed := checkOrigin(r.Header.Get("Origin"), corsWhitelist)
		if !allowed {
			writeError(w, "null", http.StatusForbidden,
				fmt.Sprintf("Origin not allowed, %s", r.Header.Get("Origin")))
			return
		}

		query, errMsg := parseQuery(r)
		if errMsg != "" {
			writeError(w, origin, http.StatusBadRequest, errMsg)
			return
		}

		result, err := agg.Aggregate(r.Context(), query.propertyID, query.roomTypeID, query.dateRange)
		if err != nil {
			writeError(w, origin, statusForError(err), err.Error())
			return
		}

		merged := calendar.Merge(calendar.MergeInput{
			Range:        query.dateRange,
			PropertyID:   query.propertyID,
			Availability: result.Availability,
			Rates:        result.Rates,
		})

		writeJSON(w, origin, http.StatusOK, merged)
	}
}

// checkOrigin applies the CORS whitelist. A "*" whitelist admits everyone
// under the wildcard origin; otherwise the request origin must appear in
// the comma-separated list.
func checkOrigin(origin, corsWhitelist string) (string, bool) {
	if corsWhitelist == "*" {
		return "*", true
	}
	if origin == "" {
		return "", false
	}
	for _, allowed := range strings.Split(corsWhitelist, ",") {
		if strings.EqualFold(strings.TrimSpace(allowed), origin) {
			return origin, true
		}
	}
	return "", false
}

// parseQuery extracts and validates the request parameters. startDate
// defaults to the first day of the current month, endDate to start + 60
// days; the span may not exceed 180 days.
func parseQuery(r *http.Request) (calendarQuery, string) {
	params := r.URL.Query()
	var query calendarQuery

	query.propertyID = params.Get("propertyId")
	if query.propertyID == "" {
		return query, "Missing propertyId query parameter"
	}

	roomTypeID := params.Get("roomTypeId")
	if roomTypeID == "" {
		return query, "Missing roomTypeId query parameter"
	}
	n, err := strconv.Atoi(roomTypeID)
	if err != nil {
		return query, fmt.Sprintf("Invalid roomTypeId: %s", roomTypeID)
	}
	query.roomTypeID = n

	today := calendar.Midnight(time.Now())
	start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	if s := params.Get("startDate"); s != "" {
		start, err = calendar.ParseDate(s)
		if err != nil {
			return query, fmt.Sprintf("Invalid start date: %s", s)
		}
	}

	end := start.AddDate(0, 0, 60)
	if s := params.Get("endDate"); s != "" {
		end, err = calendar.ParseDate(s)
		if err != nil {
			return query, fmt.Sprintf("Invalid end date: %s", s)
		}
	}

	query.dateRange = calendar.DateRange{Start: start, End: end}
	if end.Before(start) {
		return query, "End date cannot be before start date"
	}
	if err := query.dateRange.Validate(); err != nil {
		return query, "Date range cannot exceed 6 months"
	}

	return query, ""
}

// statusForError maps classified core errors onto HTTP status codes.
func statusForError(err error) int {
	var timeoutErr *aggregator.TimeoutError
	var resolveErr *credentials.ResolveError

	switch {
	case lodgify.IsNotFound(err):
		return http.StatusNotFound
	case errors.As(err, &timeoutErr):
		return http.StatusGatewayTimeout
	case errors.As(err, &resolveErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, origin string, status int, message string) {
	log.Error().Int("status", status).Msg(message)
	writeJSON(w, origin, status, errorBody{Error: message})
}

func writeJSON(w http.ResponseWriter, origin string, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	if origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
	}
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}
