// Package lodgify provides the HTTP fetchers for the Lodgify v2 availability
// and rate calendar endpoints, with error classification and metrics.
package lodgify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for Lodgify fetch operations.
var (
	lodgifyRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lodgify_requests_total",
		Help: "Total Lodgify requests by endpoint and status",
	}, []string{"endpoint", "status"})

	lodgifyRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lodgify_request_duration_seconds",
		Help:    "Lodgify request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	lodgifyErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lodgify_errors_total",
		Help: "Total Lodgify fetch errors by kind",
	}, []string{"kind"})
)

const (
	endpointAvailability = "availability"
	endpointRates        = "rates"

	isoDate = "2006-01-02"
)

// DefaultBaseURL is the production Lodgify API base.
const DefaultBaseURL = "https://api.lodgify.com"

// Config holds the client configuration.
type Config struct {
	// BaseURL is the Lodgify API base URL.
	BaseURL string

	// HTTPClient is the underlying HTTP client. Per-fetch deadlines are
	// carried by the request context, so no client timeout is set here.
	HTTPClient *http.Client
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{},
	}
}

// Client fetches availability and rate data from Lodgify. It never touches
// the result cache; callers own caching policy.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     zerolog.Logger
}

// New creates a Lodgify client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    cfg.BaseURL,
		logger:     log.With().Str("component", "lodgify-client").Logger(),
	}, nil
}

// FetchAvailability retrieves the availability records for a property over
// the given date span and selects the record matching roomTypeID. A missing
// room type yields a not_found APIError even though the HTTP call succeeded.
func (c *Client) FetchAvailability(ctx context.Context, apiKey, propertyID string, roomTypeID int, start, end time.Time) (*AvailabilityRecord, error) {
	u := fmt.Sprintf("%s/v2/availability/%s/%d?includeDetails=true&start=%s&end=%s",
		c.baseURL, url.PathEscape(propertyID), roomTypeID,
		start.Format(isoDate), end.Format(isoDate))

	var records []AvailabilityRecord
	if err := c.getJSON(ctx, endpointAvailability, u, apiKey, &records); err != nil {
		return nil, err
	}

	for i := range records {
		if records[i].RoomTypeID == roomTypeID {
			return &records[i], nil
		}
	}

	lodgifyErrorsTotal.WithLabelValues(string(KindNotFound)).Inc()
	c.logger.Warn().
		Str("property_id", propertyID).
		Int("room_type_id", roomTypeID).
		Msg("Room type absent from availability response")
	return nil, &APIError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("room type %d not found", roomTypeID),
	}
}

// FetchRates retrieves the rate calendar for a room type over the given date
// span. The payload is returned unfiltered; range reconciliation happens in
// the merge engine.
func (c *Client) FetchRates(ctx context.Context, apiKey, propertyID string, roomTypeID int, start, end time.Time) (*RateCalendar, error) {
	u := fmt.Sprintf("%s/v2/rates/calendar?RoomTypeId=%d&HouseId=%s&StartDate=%s&EndDate=%s",
		c.baseURL, roomTypeID, url.QueryEscape(propertyID),
		start.Format(isoDate), end.Format(isoDate))

	var rates RateCalendar
	if err := c.getJSON(ctx, endpointRates, u, apiKey, &rates); err != nil {
		return nil, err
	}
	return &rates, nil
}

// getJSON performs one authenticated GET and decodes a 200 body into out.
func (c *Client) getJSON(ctx context.Context, endpoint, rawURL, apiKey string, out any) error {
	startTime := time.Now()
	defer func() {
		lodgifyRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-ApiKey", apiKey)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("url", rawURL).
		Msg("Executing Lodgify request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		lodgifyErrorsTotal.WithLabelValues(string(KindTransport)).Inc()
		lodgifyRequestsTotal.WithLabelValues(endpoint, "transport_error").Inc()
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("Lodgify request failed")
		return &APIError{
			Kind:    KindTransport,
			Message: fmt.Sprintf("fetching %s", endpoint),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	lodgifyRequestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		lodgifyErrorsTotal.WithLabelValues(string(KindUpstream)).Inc()
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Msg("Lodgify request error")
		return &APIError{
			Kind:       KindUpstream,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("fetching %s", endpoint),
			Body:       string(body),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		lodgifyErrorsTotal.WithLabelValues(string(KindUpstream)).Inc()
		return &APIError{
			Kind:    KindUpstream,
			Message: fmt.Sprintf("decoding %s response", endpoint),
			Err:     err,
		}
	}

	return nil
}
