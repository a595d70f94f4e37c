package recordstore

import (
	"context"
	"errors"

	"github.com/hupe1980/blockcache/structure"
)

// ErrNotFound is returned when no current record (or no payload blob)
// exists for a root.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`.
var ErrNotFound = errors.New("record not found")

// Store persists one current record per root plus its payload blob.
// Implementations must be safe for concurrent use.
type Store interface {
	// GetCurrent returns the current record for root, or ErrNotFound.
	GetCurrent(ctx context.Context, root structure.Key) (Record, error)

	// Upsert writes the payload blob under a fresh ref, then creates or
	// replaces the record for root, then prunes superseded blobs. The
	// returned record is the one now current.
	Upsert(ctx context.Context, root structure.Key, fields VersionFields, payload []byte) (Record, error)

	// ReadBlob returns the payload bytes the record points at, or
	// ErrNotFound if the blob has vanished.
	ReadBlob(ctx context.Context, rec Record) ([]byte, error)

	// Delete removes the record for root and all payload blobs stored
	// under the root's prefix. Deleting an absent root is not an error.
	Delete(ctx context.Context, root structure.Key) error
}

// Options configures a record store.
type Options struct {
	// KeepBlobs is the number of payload blob versions retained per root,
	// current one included. Older blobs are pruned on Upsert.
	KeepBlobs int
}

// DefaultOptions returns the default record store options.
func DefaultOptions() Options {
	return Options{
		KeepBlobs: 5,
	}
}
