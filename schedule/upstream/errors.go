package upstream

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports that the service answered but had no result.
	ErrNotFound = errors.New("upstream: not found")
	// ErrUnavailable reports a non-success response, transport failure,
	// timeout, or an undecodable body.
	ErrUnavailable = errors.New("upstream: unavailable")
)

// StatusError carries the HTTP status of a failed call.
type StatusError struct {
	Endpoint string
	Status   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s: status %d", e.Endpoint, e.Status)
}

// Unwrap classifies the status so errors.Is works against the sentinels.
func (e *StatusError) Unwrap() error {
	if e.Status == 404 {
		return ErrNotFound
	}
	return ErrUnavailable
}

// Code implements the coder interface used by handler summaries.
func (e *StatusError) Code() string {
	if e.Status == 404 {
		return "UPSTREAM_NOT_FOUND"
	}
	return "UPSTREAM_UNAVAILABLE"
}

func unavailable(endpoint string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, endpoint, err)
}
