package apperrors

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrUnauthorized is returned when the remote service rejects the configured API key.
var ErrUnauthorized = errors.New("unauthorized: verify the API key set in the configuration")

// ErrStoreLocked is returned when another run already holds the dedup store lock.
var ErrStoreLocked = errors.New("dedup store is locked by another run")

// ErrNoDataDir is returned when no usable location for the dedup store can be resolved.
var ErrNoDataDir = errors.New("unable to resolve a data directory for the dedup store")

// ErrInvalidConfig marks a malformed base configuration.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConnectionError represents a request that could not reach the remote service at all,
// even after the client's internal retries. It stops the whole run.
type ConnectionError struct {
	Op  string
	URL string
	Err error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection to remote service lost during %s %s: %v", e.Op, e.URL, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Is allows for error checking with errors.Is().
func (e *ConnectionError) Is(target error) bool {
	_, ok := target.(*ConnectionError)
	return ok
}

// StatusError represents a non-2xx answer from the remote service.
type StatusError struct {
	Op         string
	URL        string
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s %s returned status %d", e.Op, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s returned status %d: %s", e.Op, e.URL, e.StatusCode, body)
}

// Is allows for error checking with errors.Is().
func (e *StatusError) Is(target error) bool {
	_, ok := target.(*StatusError)
	return ok
}

// NewStatusError creates a StatusError, truncating very long bodies.
func NewStatusError(op, url string, status int, body []byte) *StatusError {
	const maxBody = 512
	text := string(body)
	if len(text) > maxBody {
		cut := maxBody
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "…"
	}
	return &StatusError{Op: op, URL: url, StatusCode: status, Body: text}
}

// IsFatal reports whether err must abort the whole run.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, &ConnectionError{}) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrStoreLocked) ||
		errors.Is(err, ErrNoDataDir) ||
		errors.Is(err, ErrInvalidConfig)
}
