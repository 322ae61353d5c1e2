// Package credentials resolves the Lodgify API key from the secret service
// and memoizes it for the life of the process.
package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var credentialLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "lodgify_credential_lookups_total",
	Help: "Total secret service lookups by outcome",
}, []string{"outcome"})

// lookupTimeout bounds a single secret service request.
const lookupTimeout = 5 * time.Second

// secretKeyField is the field inside the decoded SecretString that holds
// the Lodgify API key.
const secretKeyField = "LODGIFY_API_KEY"

// ResolveError is a failed secret lookup: unreachable service, non-200
// status, or a payload missing the expected key.
type ResolveError struct {
	SecretName string
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *ResolveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resolve secret %s: %s: %v", e.SecretName, e.Message, e.Err)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("resolve secret %s: %s (status %d)", e.SecretName, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("resolve secret %s: %s", e.SecretName, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ResolveError) Unwrap() error {
	return e.Err
}

// Config holds the resolver configuration.
type Config struct {
	// BaseURL is the secret service base URL.
	BaseURL string

	// SecretName identifies the secret holding the Lodgify API key.
	SecretName string

	// SessionToken authenticates against the secret service.
	SessionToken string

	// HTTPClient is the underlying HTTP client (optional).
	HTTPClient *http.Client
}

// Resolver fetches the API key once and serves the memoized value to every
// subsequent caller. Only a successful lookup is memoized; after a failure
// the next call retries. Concurrent first-time calls may duplicate the
// lookup, but every success stores the same key, so the race is benign.
type Resolver struct {
	httpClient   *http.Client
	baseURL      string
	secretName   string
	sessionToken string
	logger       zerolog.Logger

	mu  sync.RWMutex
	key string
}

// NewResolver creates a credential resolver.
func NewResolver(cfg Config) (*Resolver, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("secret service base URL is required")
	}
	if cfg.SecretName == "" {
		return nil, fmt.Errorf("secret name is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Resolver{
		httpClient:   httpClient,
		baseURL:      cfg.BaseURL,
		secretName:   cfg.SecretName,
		sessionToken: cfg.SessionToken,
		logger:       log.With().Str("component", "credentials").Logger(),
	}, nil
}

// Resolve returns the Lodgify API key, fetching it from the secret service
// on the first successful call and from memory afterwards.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	r.mu.RLock()
	key := r.key
	r.mu.RUnlock()
	if key != "" {
		return key, nil
	}

	key, err := r.lookup(ctx)
	if err != nil {
		credentialLookupsTotal.WithLabelValues("error").Inc()
		return "", err
	}
	credentialLookupsTotal.WithLabelValues("success").Inc()

	r.mu.Lock()
	if r.key == "" {
		r.key = key
	}
	key = r.key
	r.mu.Unlock()

	return key, nil
}

// secretEnvelope is the secret service response body. SecretString holds a
// JSON-encoded object of secret fields.
type secretEnvelope struct {
	SecretString string `json:"SecretString"`
}

func (r *Resolver) lookup(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	u := fmt.Sprintf("%s/secretsmanager/get?secretId=%s", r.baseURL, url.QueryEscape(r.secretName))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", &ResolveError{SecretName: r.secretName, Message: "create request", Err: err}
	}
	req.Header.Set("X-Aws-Parameters-Secrets-Token", r.sessionToken)

	r.logger.Debug().Str("secret_name", r.secretName).Msg("Fetching API key from secret service")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.logger.Error().Err(err).Str("secret_name", r.secretName).Msg("Secret service request failed")
		return "", &ResolveError{SecretName: r.secretName, Message: "secret service unreachable", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		r.logger.Error().
			Int("status", resp.StatusCode).
			Str("secret_name", r.secretName).
			Msg("Secret service returned non-200 status")
		return "", &ResolveError{
			SecretName: r.secretName,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected response: %s", string(body)),
		}
	}

	var envelope secretEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", &ResolveError{SecretName: r.secretName, Message: "decode response", Err: err}
	}

	var secrets map[string]string
	if err := json.Unmarshal([]byte(envelope.SecretString), &secrets); err != nil {
		return "", &ResolveError{SecretName: r.secretName, Message: "decode secret string", Err: err}
	}

	key := secrets[secretKeyField]
	if key == "" {
		return "", &ResolveError{SecretName: r.secretName, Message: fmt.Sprintf("secret is missing %s", secretKeyField)}
	}

	return key, nil
}
