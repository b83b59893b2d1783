// Package publish sends scrape-completed notifications.
package publish

import "context"

// Publisher abstracts the notification channel for stored scrape results.
type Publisher interface {
	// Publish announces a stored record by id. Implementations should be
	// fire-and-forget; callers never fail a scrape on a publish error.
	Publish(ctx context.Context, recordID string) error

	// Close releases the underlying client resources.
	Close() error
}

// NoOp discards notifications.
type NoOp struct{}

// Publish for NoOp does nothing and returns nil.
func (n *NoOp) Publish(_ context.Context, _ string) error { return nil }

// Close for NoOp does nothing and returns nil.
func (n *NoOp) Close() error { return nil }
