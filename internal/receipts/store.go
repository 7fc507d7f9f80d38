package receipts

import "context"

// Store is the capability set every receipt backend (and the caching
// decorator) implements.
type Store interface {
	// Add persists one receipt: links it to the previously appended
	// receipt, derives its content hash, and returns the stored form.
	Add(ctx context.Context, r Receipt) (Receipt, error)

	// Chain returns every receipt for the trace, sorted ascending by
	// (hop, ts). Transient backend failures degrade to an empty result.
	Chain(ctx context.Context, traceID string) ([]Receipt, error)

	// Path describes the backing location, e.g. a file path or
	// "firestore://<project>/<collection>".
	Path() string

	// Close releases backend resources.
	Close() error
}
