package provider

import (
	"context"
	"errors"
	"fmt"
)

// Provider is a paginated stock-photo search API.
type Provider interface {
	// Search returns one page of results. pageToken is empty for the first
	// page and otherwise the NextPageToken of a previous page.
	Search(ctx context.Context, query string, pageSize int, pageToken string) (*SearchPage, error)
}

// SearchPage is one page of provider results.
type SearchPage struct {
	Photos        []Photo
	TotalResults  int
	NextPageToken string
}

// ErrCircuitOpen is returned while the breaker rejects provider calls.
var ErrCircuitOpen = errors.New("provider temporarily unavailable")

// FetchError describes a failed provider call.
type FetchError struct {
	Query      string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("search %q: HTTP error: %d", e.Query, e.StatusCode)
	}
	return fmt.Sprintf("search %q: %v", e.Query, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is likely transient.
func (e *FetchError) Retryable() bool {
	return e.StatusCode == 0 || e.StatusCode == 429 || e.StatusCode >= 500
}
