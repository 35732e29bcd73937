package model

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestNewStatusError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		want   error
	}{
		{status: 404, want: ErrNotAvailable},
		{status: 401, want: ErrNotPublic},
		{status: 403, want: ErrNotPublic},
		{status: 500, want: ErrBadStatus},
		{status: 429, want: ErrBadStatus},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			t.Parallel()

			err := NewStatusError("https://shop.example.com/collections.json", tt.status)
			if !errors.Is(err, tt.want) {
				t.Errorf("status %d: expected %v, got %v", tt.status, tt.want, err)
			}
			if err.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", err.StatusCode, tt.status)
			}
		})
	}
}

func TestScrapeErrorMessagesAreDistinguishable(t *testing.T) {
	t.Parallel()

	notFound := NewStatusError("https://s/collections.json", 404).Error()
	forbidden := NewStatusError("https://s/collections.json", 403).Error()
	empty := (&ScrapeError{URL: "https://s/collections.json", Reason: ErrNoData}).Error()

	if notFound == forbidden || notFound == empty || forbidden == empty {
		t.Errorf("messages should differ: %q / %q / %q", notFound, forbidden, empty)
	}
	if want := "https://s/collections.json: resource not available (status 404)"; notFound != want {
		t.Errorf("got %q, want %q", notFound, want)
	}
}

func TestScrapeErrorUnwrapsCause(t *testing.T) {
	t.Parallel()

	err := error(&ScrapeError{URL: "https://s/", Reason: ErrRequestFailed, Err: context.DeadlineExceeded})
	if !errors.Is(err, ErrRequestFailed) {
		t.Error("expected ErrRequestFailed")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("expected the cause to be reachable")
	}

	var se *ScrapeError
	if !errors.As(fmt.Errorf("wrapped: %w", err), &se) {
		t.Fatal("errors.As failed")
	}
	if se.URL != "https://s/" {
		t.Errorf("URL = %q", se.URL)
	}
}

func TestClusteringUnavailable(t *testing.T) {
	t.Parallel()

	err := error(&ClusteringUnavailable{Reason: "3 products, need at least 5", Err: ErrTooFewProducts})
	if !errors.Is(err, ErrTooFewProducts) {
		t.Error("expected ErrTooFewProducts")
	}
	want := "clustering unavailable: 3 products, need at least 5: not enough products to cluster"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}
