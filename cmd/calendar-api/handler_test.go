package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/lakeviewcottage/lodgify-calendar/internal/testutil"
	"github.com/lakeviewcottage/lodgify-calendar/pkg/aggregator"
	"github.com/lakeviewcottage/lodgify-calendar/pkg/cache"
	"github.com/lakeviewcottage/lodgify-calendar/pkg/calendar"
	"github.com/lakeviewcottage/lodgify-calendar/pkg/credentials"
	"github.com/lakeviewcottage/lodgify-calendar/pkg/lodgify"
)

func TestCheckOrigin(t *testing.T) {
	tests := []struct {
		name       string
		origin     string
		whitelist  string
		wantOrigin string
		wantOK     bool
	}{
		{"wildcard admits everyone", "https://evil.example", "*", "*", true},
		{"wildcard with empty origin", "", "*", "*", true},
		{"listed origin", "https://lakeviewcottage.example", "https://lakeviewcottage.example", "https://lakeviewcottage.example", true},
		{"listed among several", "https://b.example", "https://a.example, https://b.example", "https://b.example", true},
		{"case insensitive match", "https://A.Example", "https://a.example", "https://A.Example", true},
		{"unlisted origin", "https://evil.example", "https://a.example", "", false},
		{"empty origin without wildcard", "", "https://a.example", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origin, ok := checkOrigin(tt.origin, tt.whitelist)
			if origin != tt.wantOrigin || ok != tt.wantOK {
				t.Errorf("checkOrigin(%q, %q) = (%q, %v), want (%q, %v)",
					tt.origin, tt.whitelist, origin, ok, tt.wantOrigin, tt.wantOK)
			}
		})
	}
}

func TestParseQuery_Errors(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantMsg string
	}{
		{"missing propertyId", "roomTypeId=1", "Missing propertyId query parameter"},
		{"missing roomTypeId", "propertyId=197244", "Missing roomTypeId query parameter"},
		{"non-numeric roomTypeId", "propertyId=197244&roomTypeId=abc", "Invalid roomTypeId: abc"},
		{"bad start date", "propertyId=197244&roomTypeId=1&startDate=06/01/2025", "Invalid start date: 06/01/2025"},
		{"bad end date", "propertyId=197244&roomTypeId=1&startDate=2025-06-01&endDate=soon", "Invalid end date: soon"},
		{"end before start", "propertyId=197244&roomTypeId=1&startDate=2025-06-10&endDate=2025-06-01", "End date cannot be before start date"},
		{"range too long", "propertyId=197244&roomTypeId=1&startDate=2025-01-01&endDate=2025-12-31", "Date range cannot exceed 6 months"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/v1/calendar?"+tt.query, nil)
			_, msg := parseQuery(r)
			if msg != tt.wantMsg {
				t.Errorf("parseQuery message = %q, want %q", msg, tt.wantMsg)
			}
		})
	}
}

func TestParseQuery_ExplicitDates(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet,
		"/v1/calendar?propertyId=197244&roomTypeId=257944&startDate=2025-06-01&endDate=2025-06-30", nil)

	query, msg := parseQuery(r)
	if msg != "" {
		t.Fatalf("parseQuery error = %q", msg)
	}
	if query.propertyID != "197244" || query.roomTypeID != 257944 {
		t.Errorf("parsed ids = (%q, %d)", query.propertyID, query.roomTypeID)
	}
	if got := calendar.FormatDate(query.dateRange.Start); got != "2025-06-01" {
		t.Errorf("start = %s, want 2025-06-01", got)
	}
	if got := calendar.FormatDate(query.dateRange.End); got != "2025-06-30" {
		t.Errorf("end = %s, want 2025-06-30", got)
	}
}

func TestParseQuery_Defaults(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/v1/calendar?propertyId=197244&roomTypeId=257944", nil)

	query, msg := parseQuery(r)
	if msg != "" {
		t.Fatalf("parseQuery error = %q", msg)
	}

	now := time.Now().UTC()
	wantStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	if !query.dateRange.Start.Equal(wantStart) {
		t.Errorf("default start = %v, want first of current month %v", query.dateRange.Start, wantStart)
	}
	if !query.dateRange.End.Equal(wantStart.AddDate(0, 0, 60)) {
		t.Errorf("default end = %v, want start + 60 days", query.dateRange.End)
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"room type not found", &lodgify.APIError{Kind: lodgify.KindNotFound}, http.StatusNotFound},
		{"aggregate timeout", &aggregator.TimeoutError{Timeout: 6 * time.Second}, http.StatusGatewayTimeout},
		{"credential failure", &credentials.ResolveError{SecretName: "x"}, http.StatusInternalServerError},
		{"upstream failure", &lodgify.APIError{Kind: lodgify.KindUpstream, StatusCode: 502}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusForError(tt.err); got != tt.want {
				t.Errorf("statusForError = %d, want %d", got, tt.want)
			}
		})
	}
}

// newTestHandler wires the calendar handler against mock upstreams.
func newTestHandler(t *testing.T, corsWhitelist string) (http.HandlerFunc, *testutil.MockLodgify) {
	t.Helper()

	secrets := testutil.NewMockSecrets("key-123")
	t.Cleanup(secrets.Close)

	mock := testutil.NewMockLodgify()
	t.Cleanup(mock.Close)

	resolver, err := credentials.NewResolver(credentials.Config{
		BaseURL:    secrets.URL(),
		SecretName: "lodgify-api-key",
	})
	if err != nil {
		t.Fatal(err)
	}
	client, err := lodgify.New(lodgify.Config{BaseURL: mock.URL()})
	if err != nil {
		t.Fatal(err)
	}
	agg, err := aggregator.New(aggregator.Config{
		Store:       cache.NewMemoryStore(cache.DefaultMemoryConfig()),
		Credentials: resolver,
		Client:      client,
	})
	if err != nil {
		t.Fatal(err)
	}

	return calendarHandler(agg, corsWhitelist), mock
}

func TestCalendarHandler_Success(t *testing.T) {
	handler, mock := newTestHandler(t, "*")
	mock.SetAvailabilityResponse(testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       testutil.AvailabilityBody(257944, "2025-06-01", "2025-06-30", 1),
	})
	mock.SetRatesResponse(testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       testutil.RatesBody("USD", 0, "2025-06-01", 150),
	})

	r := httptest.NewRequest(http.MethodGet,
		"/v1/calendar?propertyId=197244&roomTypeId=257944&startDate=2025-06-01&endDate=2025-06-30", nil)
	w := httptest.NewRecorder()
	handler(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}

	var body calendar.AggregatedCalendar
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if body.StartDate != "2025-06-01" || body.EndDate != "2025-06-30" {
		t.Errorf("range = %s..%s", body.StartDate, body.EndDate)
	}
	if body.RoomTypeID != 257944 || body.CurrencyCode != "USD" {
		t.Errorf("roomType = %d currency = %s", body.RoomTypeID, body.CurrencyCode)
	}
	if len(body.Dates) != 30 {
		t.Errorf("dates = %d, want 30", len(body.Dates))
	}
}

func TestCalendarHandler_ForbiddenOrigin(t *testing.T) {
	handler, _ := newTestHandler(t, "https://lakeviewcottage.example")

	r := httptest.NewRequest(http.MethodGet, "/v1/calendar?propertyId=197244&roomTypeId=257944", nil)
	r.Header.Set("Origin", "https://evil.example")
	w := httptest.NewRecorder()
	handler(w, r)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}

	var body errorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(body.Error, "Origin not allowed") {
		t.Errorf("error = %q", body.Error)
	}
}

func TestCalendarHandler_ValidationError(t *testing.T) {
	handler, mock := newTestHandler(t, "*")

	r := httptest.NewRequest(http.MethodGet, "/v1/calendar?roomTypeId=257944", nil)
	w := httptest.NewRecorder()
	handler(w, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if mock.TotalRequests() != 0 {
		t.Errorf("upstream requests = %d, validation should reject first", mock.TotalRequests())
	}
}

func TestCalendarHandler_RoomTypeNotFound(t *testing.T) {
	handler, mock := newTestHandler(t, "*")
	mock.SetAvailabilityResponse(testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `[]`,
	})

	r := httptest.NewRequest(http.MethodGet,
		"/v1/calendar?propertyId=197244&roomTypeId=257944&startDate=2025-06-01&endDate=2025-06-30", nil)
	w := httptest.NewRecorder()
	handler(w, r)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestCalendarHandler_UpstreamFailure(t *testing.T) {
	handler, mock := newTestHandler(t, "*")
	mock.SetAvailabilityResponse(testutil.MockResponse{
		StatusCode: http.StatusServiceUnavailable,
		Body:       `{"message":"maintenance"}`,
	})

	r := httptest.NewRequest(http.MethodGet,
		"/v1/calendar?propertyId=197244&roomTypeId=257944&startDate=2025-06-01&endDate=2025-06-30", nil)
	w := httptest.NewRecorder()
	handler(w, r)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("CAL_TEST_STR", "value")
	if got := getEnv("CAL_TEST_STR", "fallback"); got != "value" {
		t.Errorf("getEnv = %q", got)
	}
	if got := getEnv("CAL_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("getEnv default = %q", got)
	}

	t.Setenv("CAL_TEST_INT", "42")
	if got := envInt("CAL_TEST_INT", 7); got != 42 {
		t.Errorf("envInt = %d", got)
	}
	t.Setenv("CAL_TEST_BAD_INT", "not-a-number")
	if got := envInt("CAL_TEST_BAD_INT", 7); got != 7 {
		t.Errorf("envInt on garbage = %d, want default", got)
	}

	t.Setenv("CAL_TEST_SECS", "9")
	if got := envSeconds("CAL_TEST_SECS", time.Second); got != 9*time.Second {
		t.Errorf("envSeconds = %v", got)
	}
}

// Guard against handler routes drifting from the documented query surface.
func TestQueryParameterNames(t *testing.T) {
	values := url.Values{}
	values.Set("propertyId", "197244")
	values.Set("roomTypeId", "257944")
	values.Set("startDate", "2025-06-01")
	values.Set("endDate", "2025-06-02")

	r := httptest.NewRequest(http.MethodGet, "/v1/calendar?"+values.Encode(), nil)
	if _, msg := parseQuery(r); msg != "" {
		t.Errorf("documented parameter names rejected: %s", msg)
	}
}
