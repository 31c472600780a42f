package docsystem

import (
	"context"
	"io"
)

// ContentStore holds file bytes keyed by content ID. Content IDs are
// independent of node paths, so moves and renames never touch content.
type ContentStore interface {
	// Write stores the bytes read from r under id and returns the byte count.
	Write(ctx context.Context, id string, r io.Reader) (int64, error)

	// Open returns a reader for the content. Missing content fails with an
	// error matching domain.ErrNotFound.
	Open(ctx context.Context, id string) (io.ReadCloser, error)

	// Delete removes the content. Deleting missing content is not an error.
	Delete(ctx context.Context, id string) error

	// HealthCheck verifies the backing storage is reachable.
	HealthCheck(ctx context.Context) error
}
