// Package storage defines the persistence interface for scraping results.
// The interface decouples the HTTP layer from Postgres so tests and local
// runs can use the no-op store.
package storage

import (
	"context"
	"time"
)

// Record is one scraped film handed to the store, together with the
// extraction-method tag ("headless" or "http"). Optional fields are nil
// when the extractor resolved them to absence.
type Record struct {
	Title       string
	URL         string
	Genre       string
	Year        *int
	Rating      *float64
	Director    *string
	Actors      *string
	Duration    *string
	Country     *string
	Description *string
	PosterURL   *string
	Genres      *string
	Method      string
}

// StoredResult is a persisted row as returned by history queries.
type StoredResult struct {
	ID        int64     `json:"id"`
	Title     string    `json:"film_title"`
	URL       string    `json:"film_url"`
	Genre     *string   `json:"genre"`
	Year      *int      `json:"year"`
	Rating    *float64  `json:"rating"`
	Method    string    `json:"scraping_method"`
	ScrapedAt time.Time `json:"scraped_at"`
}

// Store persists scrape results and serves scrape history.
type Store interface {
	// StoreResult inserts one record and returns its id.
	StoreResult(ctx context.Context, rec Record) (int64, error)

	// ListResults returns stored rows, newest first, with pagination.
	ListResults(ctx context.Context, offset, limit int) ([]StoredResult, error)

	// Close releases the underlying pool resources.
	Close()
}

// NoOpStore discards records and serves an empty history.
type NoOpStore struct{}

// StoreResult for NoOpStore does nothing and returns a dummy id.
func (n *NoOpStore) StoreResult(_ context.Context, _ Record) (int64, error) {
	return 0, nil
}

// ListResults for NoOpStore returns no rows.
func (n *NoOpStore) ListResults(_ context.Context, _, _ int) ([]StoredResult, error) {
	return nil, nil
}

// Close for NoOpStore does nothing.
func (n *NoOpStore) Close() {}
