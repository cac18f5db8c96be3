package models

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuery is returned when a query request carries a blank query string.
	ErrEmptyQuery = errors.New("missing query")

	// ErrEmptyIndex is returned when a query arrives before anything was ingested.
	ErrEmptyIndex = errors.New("index is empty")

	// ErrEmptyEmbedding is returned when the provider answers with a zero-length vector.
	ErrEmptyEmbedding = errors.New("provider returned empty embedding")
)

// DimensionMismatchError rejects an append whose embedding length differs from
// the dimension the store is pinned to.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: store has %d, got %d", e.Want, e.Got)
}

// ProviderError carries the status and raw body of a failed embedding or
// generation call so callers can log exactly what the provider said.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider request failed: status %d: %s", e.StatusCode, e.Body)
}
