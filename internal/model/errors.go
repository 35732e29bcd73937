package model

import (
	"errors"
	"fmt"
	"net/http"
)

// Reasons a scrape of a public storefront endpoint fails.
// A ScrapeError always wraps exactly one of them.
var (
	// ErrNotAvailable is returned when the endpoint answers 404.
	ErrNotAvailable = errors.New("resource not available")
	// ErrNotPublic is returned when the endpoint answers 401 or 403.
	ErrNotPublic = errors.New("resource not publicly accessible")
	// ErrBadStatus is returned for any other non-2xx status.
	ErrBadStatus = errors.New("unexpected status")
	// ErrNoData is returned when an endpoint answered but yielded nothing.
	ErrNoData = errors.New("no data returned")
	// ErrMalformed is returned when a response body cannot be decoded.
	ErrMalformed = errors.New("malformed document")
	// ErrRequestFailed is returned for transport failures and timeouts.
	ErrRequestFailed = errors.New("request failed")
	// ErrTooLarge is returned when a body exceeds the client's size limit.
	ErrTooLarge = errors.New("response body too large")
)

// ErrTooFewProducts is wrapped by ClusteringUnavailable when the catalog
// is too small to cluster.
var ErrTooFewProducts = errors.New("not enough products to cluster")

// ScrapeError describes a failed fetch of a storefront resource.
type ScrapeError struct {
	// URL is the request that failed.
	URL string
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int
	// Reason is one of the Err* sentinels above.
	Reason error
	// Err is the underlying cause, if any.
	Err error
}

// NewStatusError maps an HTTP status code to a ScrapeError.
func NewStatusError(rawURL string, status int) *ScrapeError {
	reason := ErrBadStatus
	switch status {
	case http.StatusNotFound:
		reason = ErrNotAvailable
	case http.StatusUnauthorized, http.StatusForbidden:
		reason = ErrNotPublic
	}
	return &ScrapeError{URL: rawURL, StatusCode: status, Reason: reason}
}

// Error implements the error interface.
func (e *ScrapeError) Error() string {
	reason := "scrape failed"
	if e.Reason != nil {
		reason = e.Reason.Error()
	}
	msg := reason
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", reason, e.StatusCode)
	}
	if e.URL != "" {
		msg = e.URL + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the reason sentinel and the cause to errors.Is.
func (e *ScrapeError) Unwrap() []error {
	var errs []error
	if e.Reason != nil {
		errs = append(errs, e.Reason)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// ClusteringUnavailable reports that products could not be clustered.
// It is never fatal to a profile run.
type ClusteringUnavailable struct {
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *ClusteringUnavailable) Error() string {
	if e.Err != nil && e.Reason != "" {
		return "clustering unavailable: " + e.Reason + ": " + e.Err.Error()
	}
	if e.Err != nil {
		return "clustering unavailable: " + e.Err.Error()
	}
	return "clustering unavailable: " + e.Reason
}

// Unwrap returns the underlying cause.
func (e *ClusteringUnavailable) Unwrap() error {
	return e.Err
}
