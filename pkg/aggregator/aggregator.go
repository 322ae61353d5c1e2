// Package aggregator fans out to the Lodgify availability and rate fetchers
// concurrently and memoizes successful results in the result cache.
package aggregator

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lakeviewcottage/lodgify-calendar/pkg/cache"
	"github.com/lakeviewcottage/lodgify-calendar/pkg/calendar"
	"github.com/lakeviewcottage/lodgify-calendar/pkg/credentials"
	"github.com/lakeviewcottage/lodgify-calendar/pkg/lodgify"
)

var aggregationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "calendar_aggregations_total",
	Help: "Total aggregation calls by outcome",
}, []string{"outcome"})

// DefaultFetchTimeout bounds the join of both upstream fetches.
const DefaultFetchTimeout = 6 * time.Second

// TimeoutError means the aggregate join exceeded its deadline before both
// fetches completed.
type TimeoutError struct {
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s while fetching availability or rates", e.Timeout)
}

// Config holds the aggregator configuration.
type Config struct {
	// Store is the result cache backend.
	Store cache.Store

	// Credentials resolves the Lodgify API key.
	Credentials *credentials.Resolver

	// Client performs the upstream fetches.
	Client *lodgify.Client

	// FetchTimeout bounds the join of both fetches (default 6s).
	FetchTimeout time.Duration
}

// Result is one complete aggregation: the matched availability record and
// the unfiltered rate calendar.
type Result struct {
	Availability *lodgify.AvailabilityRecord
	Rates        *lodgify.RateCalendar
}

// Aggregator coordinates cache, credential resolution, and the two
// concurrent upstream fetches. Concurrent calls for the same uncached key
// may each fetch upstream; the duplication is accepted rather than
// collapsed, given the low request volume this serves.
type Aggregator struct {
	store   cache.Store
	creds   *credentials.Resolver
	client  *lodgify.Client
	timeout time.Duration
	logger  zerolog.Logger
}

// New creates an aggregator.
func New(cfg Config) (*Aggregator, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("cache store is required")
	}
	if cfg.Credentials == nil {
		return nil, fmt.Errorf("credential resolver is required")
	}
	if cfg.Client == nil {
		return nil, fmt.Errorf("lodgify client is required")
	}
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Aggregator{
		store:   cfg.Store,
		creds:   cfg.Credentials,
		client:  cfg.Client,
		timeout: timeout,
		logger:  log.With().Str("component", "aggregator").Logger(),
	}, nil
}

type availabilityResult struct {
	record *lodgify.AvailabilityRecord
	err    error
}

type ratesResult struct {
	rates *lodgify.RateCalendar
	err   error
}

// Aggregate returns the availability and rates for one property, room type,
// and date range, from cache when possible.
//
// On a miss it resolves the API key, launches both fetches concurrently,
// and joins them under one deadline. When the deadline fires the shared
// context is cancelled, so abandoned fetches are told to stop rather than
// left running. When both fetches fail, the availability error is surfaced
// and the rates error discarded. Only fully successful results reach the
// cache.
func (a *Aggregator) Aggregate(ctx context.Context, propertyID string, roomTypeID int, rng calendar.DateRange) (*Result, error) {
	key := cache.NewKey(propertyID, roomTypeID, rng)

	if entry, err := a.store.Get(ctx, key); err == nil {
		aggregationsTotal.WithLabelValues("cache_hit").Inc()
		a.logger.Debug().
			Str("cache_key", key.String()).
			Msg("Serving aggregation from cache")
		return &Result{Availability: entry.Availability, Rates: entry.Rates}, nil
	} else if err != cache.ErrCacheMiss {
		a.logger.Warn().Err(err).Str("cache_key", key.String()).Msg("Cache get error")
	}

	apiKey, err := a.creds.Resolve(ctx)
	if err != nil {
		aggregationsTotal.WithLabelValues("credential_error").Inc()
		return nil, err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	availCh := make(chan availabilityResult, 1)
	ratesCh := make(chan ratesResult, 1)

	go func() {
		record, err := a.client.FetchAvailability(fetchCtx, apiKey, propertyID, roomTypeID, rng.Start, rng.End)
		availCh <- availabilityResult{record: record, err: err}
	}()
	go func() {
		rates, err := a.client.FetchRates(fetchCtx, apiKey, propertyID, roomTypeID, rng.Start, rng.End)
		ratesCh <- ratesResult{rates: rates, err: err}
	}()

	var avail availabilityResult
	var rates ratesResult
	for pending := 2; pending > 0; pending-- {
		select {
		case avail = <-availCh:
		case rates = <-ratesCh:
		case <-fetchCtx.Done():
			aggregationsTotal.WithLabelValues("timeout").Inc()
			a.logger.Warn().
				Str("property_id", propertyID).
				Int("room_type_id", roomTypeID).
				Dur("timeout", a.timeout).
				Msg("Aggregate join exceeded its deadline")
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, &TimeoutError{Timeout: a.timeout}
		}
	}

	// Availability errors take precedence over rates errors.
	fetchErr := avail.err
	if fetchErr == nil {
		fetchErr = rates.err
	}

	entry := &cache.Entry{
		Availability: avail.record,
		Rates:        rates.rates,
		Err:          fetchErr,
	}
	// The store drops error entries, so failures are retried on the next call.
	if err := a.store.Set(ctx, key, entry); err != nil {
		a.logger.Warn().Err(err).Str("cache_key", key.String()).Msg("Cache set error")
	}

	if fetchErr != nil {
		aggregationsTotal.WithLabelValues("upstream_error").Inc()
		return nil, fetchErr
	}

	aggregationsTotal.WithLabelValues("fetched").Inc()
	return &Result{Availability: avail.record, Rates: rates.rates}, nil
}
