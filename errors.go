package blockcache

import (
	"errors"
	"fmt"

	"github.com/hupe1980/blockcache/cache"
	"github.com/hupe1980/blockcache/recordstore"
)

var (
	// ErrNotFound is returned when a root has no usable entry in any
	// consulted tier. Callers typically recompute the structure and Add
	// it. Distinct from codec.ErrCorruptPayload: absence is recoverable,
	// corruption is not.
	ErrNotFound = errors.New("block structure not found")

	// ErrStorageNotConfigured is returned by operations that need the
	// durable tier when the cache was built without one.
	ErrStorageNotConfigured = errors.New("durable store not configured")
)

// translateError unifies tier-level misses under ErrNotFound. Everything
// else, corrupt payloads and unreachable tiers included, passes through
// unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Not found unification.
	if errors.Is(err, recordstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if errors.Is(err, cache.ErrMiss) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	return err
}
