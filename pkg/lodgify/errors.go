package lodgify

import (
	"errors"
	"fmt"
)

// ErrorKind classifies upstream fetch failures.
type ErrorKind string

const (
	// KindUpstream represents a non-200 HTTP response from Lodgify.
	KindUpstream ErrorKind = "upstream"

	// KindTransport represents a network-level failure before any HTTP
	// status was received.
	KindTransport ErrorKind = "transport"

	// KindNotFound means the HTTP call succeeded but the requested room
	// type was absent from the availability response.
	KindNotFound ErrorKind = "not_found"
)

// APIError is a classified Lodgify fetch failure with diagnostic context.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Body       string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("lodgify %s error: %s: %v", e.Kind, e.Message, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("lodgify %s error (status %d): %s", e.Kind, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("lodgify %s error: %s", e.Kind, e.Message)
	}
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// KindOf returns the classification of err, or "" if err is not an APIError.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// IsNotFound reports whether err is a room-type-not-found failure.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}
