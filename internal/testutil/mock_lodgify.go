// Package testutil provides mock upstream servers for testing the calendar
// service: a configurable Lodgify API and a secret service.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Delay      time.Duration
}

// MockLodgify is a configurable mock Lodgify API server.
type MockLodgify struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	// Tracking
	AvailabilityCount int
	RatesCount        int
	LastAPIKey        string
}

// NewMockLodgify creates a new mock Lodgify server.
func NewMockLodgify() *MockLodgify {
	mock := &MockLodgify{
		handlers: make(map[string]http.HandlerFunc),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.LastAPIKey = r.Header.Get("X-ApiKey")
		switch {
		case strings.HasPrefix(r.URL.Path, "/v2/availability/"):
			mock.AvailabilityCount++
		case r.URL.Path == "/v2/rates/calendar":
			mock.RatesCount++
		}
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[routeOf(r.URL.Path)]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// routeOf collapses concrete paths onto the two configurable routes.
func routeOf(path string) string {
	if strings.HasPrefix(path, "/v2/availability/") {
		return "availability"
	}
	if path == "/v2/rates/calendar" {
		return "rates"
	}
	return path
}

// URL returns the mock server URL.
func (m *MockLodgify) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockLodgify) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockLodgify) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AvailabilityCount = 0
	m.RatesCount = 0
	m.LastAPIKey = ""
}

// SetAvailabilityHandler sets a custom handler for the availability endpoint.
func (m *MockLodgify) SetAvailabilityHandler(handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers["availability"] = handler
}

// SetRatesHandler sets a custom handler for the rates calendar endpoint.
func (m *MockLodgify) SetRatesHandler(handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers["rates"] = handler
}

// SetAvailabilityResponse configures a canned availability response.
func (m *MockLodgify) SetAvailabilityResponse(resp MockResponse) {
	m.SetAvailabilityHandler(respond(resp))
}

// SetRatesResponse configures a canned rates response.
func (m *MockLodgify) SetRatesResponse(resp MockResponse) {
	m.SetRatesHandler(respond(resp))
}

func respond(resp MockResponse) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	}
}

// TotalRequests returns the number of upstream calls made to the server.
func (m *MockLodgify) TotalRequests() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.AvailabilityCount + m.RatesCount
}

// defaultHandler serves empty but well-formed payloads.
func (m *MockLodgify) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch routeOf(r.URL.Path) {
	case "availability":
		w.Write([]byte(`[]`))
	case "rates":
		w.Write([]byte(`{"rate_settings":{},"calendar_items":[]}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// AvailabilityBody builds a one-record availability payload covering one
// period. available is the Lodgify integer code (1 = bookable).
func AvailabilityBody(roomTypeID int, start, end string, available int) string {
	return fmt.Sprintf(`[{"room_type_id":%d,"periods":[{"start":%q,"end":%q,"available":%d}]}]`,
		roomTypeID, start, end, available)
}

// RatesBody builds a rates payload with one priced day.
func RatesBody(currency string, noticeDays int, date string, price float64) string {
	return fmt.Sprintf(`{"rate_settings":{"currency_code":%q,"advance_notice_days":%d},"calendar_items":[{"date":%q,"prices":[{"price_per_day":%g}]}]}`,
		currency, noticeDays, date, price)
}

// MockSecrets is a mock secret service holding one Lodgify API key.
type MockSecrets struct {
	server *httptest.Server
	mu     sync.RWMutex

	apiKey     string
	statusCode int
	body       string

	// Tracking
	LookupCount int
	LastToken   string
}

// NewMockSecrets creates a secret service that returns the given API key.
func NewMockSecrets(apiKey string) *MockSecrets {
	mock := &MockSecrets{apiKey: apiKey, statusCode: http.StatusOK}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.LookupCount++
		mock.LastToken = r.Header.Get("X-Aws-Parameters-Secrets-Token")
		status, body, key := mock.statusCode, mock.body, mock.apiKey
		mock.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			w.Write([]byte(body))
			return
		}
		fmt.Fprintf(w, `{"SecretString":"{\"LODGIFY_API_KEY\": \"%s\"}"}`, key)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockSecrets) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockSecrets) Close() {
	m.server.Close()
}

// Fail makes every subsequent lookup return the given status and body.
func (m *MockSecrets) Fail(statusCode int, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusCode = statusCode
	m.body = body
}

// Recover restores successful lookups.
func (m *MockSecrets) Recover() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusCode = http.StatusOK
	m.body = ""
}

// Lookups returns the number of secret lookups served.
func (m *MockSecrets) Lookups() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LookupCount
}
