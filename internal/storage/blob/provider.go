// Package blob archives raw rendered markup snapshots.
//
// The Provider abstraction keeps the service independent of a specific
// blob backend; production uses Google Cloud Storage and the default is a
// no-op.
package blob

import "context"

// Provider abstracts saving a blob under an object name.
type Provider interface {
	Save(ctx context.Context, objectName string, data []byte) error
}

// NoOpProvider discards snapshots. Useful for dry runs and tests.
type NoOpProvider struct{}

// Save for NoOpProvider does nothing and always returns nil.
func (n *NoOpProvider) Save(_ context.Context, _ string, _ []byte) error {
	return nil
}
