package blockcache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hupe1980/blockcache/cache"
	"github.com/hupe1980/blockcache/codec"
	"github.com/hupe1980/blockcache/recordstore"
	"github.com/hupe1980/blockcache/structure"
)

// Cache is the block structure cache: a fast volatile tier fronting an
// optional durable record store. Safe for concurrent use; all
// synchronization lives in the underlying tiers, and cross-tier races
// resolve as last write wins.
type Cache struct {
	codec           codec.Codec
	fast            cache.Client
	tier            tier
	ttl             time.Duration
	warmConcurrency int
	warmLimiter     *rate.Limiter
	metrics         MetricsCollector
	logger          *Logger
}

// New creates a block structure cache on top of the given fast tier.
// Without WithDurableStore the cache runs in pure volatile mode.
func New(fast cache.Client, optFns ...Option) (*Cache, error) {
	if fast == nil {
		return nil, errors.New("blockcache: fast tier client is required")
	}

	o := applyOptions(optFns)

	if o.codec == nil {
		o.codec = codec.Default
	}

	var t tier
	if o.records != nil {
		t = &storageTier{codec: o.codec, records: o.records}
	} else {
		t = &volatileTier{codec: o.codec}
	}

	var limiter *rate.Limiter
	if o.warmRatePerSec > 0 {
		burst := int(o.warmRatePerSec)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(o.warmRatePerSec), burst)
	}

	return &Cache{
		codec:           o.codec,
		fast:            fast,
		tier:            t,
		ttl:             o.ttl,
		warmConcurrency: o.warmConcurrency,
		warmLimiter:     limiter,
		metrics:         o.metricsCollector,
		logger:          o.logger,
	}, nil
}

// Add serializes the structure, writes it through the durable tier when
// one is configured and caches the payload under the version-derived
// key. Repeated Adds of the same version overwrite the same slot.
func (c *Cache) Add(ctx context.Context, s *structure.BlockStructure) error {
	start := time.Now()

	if s == nil {
		return errors.New("blockcache: structure is required")
	}

	size, err := c.add(ctx, s)
	duration := time.Since(start)
	err = translateError(err)
	c.metrics.RecordAdd(duration, err)
	c.logger.LogAdd(ctx, s.Root, size, err)

	return err
}

func (c *Cache) add(ctx context.Context, s *structure.BlockStructure) (int, error) {
	payload, err := c.codec.Encode(s.Tables)
	if err != nil {
		return 0, fmt.Errorf("encode payload: %w", err)
	}

	key, err := c.tier.commit(ctx, s, payload)
	if err != nil {
		return len(payload), err
	}

	if err := c.fast.Set(ctx, key, payload, c.ttl); err != nil {
		return len(payload), fmt.Errorf("fast tier set: %w", err)
	}

	return len(payload), nil
}

// Get returns the structure cached for root. It probes the fast tier
// first and falls back to the durable tier on a miss. A root absent from
// every consulted tier fails with ErrNotFound; an undecodable payload
// fails with codec.ErrCorruptPayload, never ErrNotFound.
func (c *Cache) Get(ctx context.Context, root structure.Key) (*structure.BlockStructure, error) {
	start := time.Now()
	s, source, size, err := c.get(ctx, root)
	duration := time.Since(start)
	err = translateError(err)
	c.metrics.RecordGet(source, duration, err)
	c.logger.LogGet(ctx, root, source, size, err)

	return s, err
}

func (c *Cache) get(ctx context.Context, root structure.Key) (*structure.BlockStructure, string, int, error) {
	key, rec, err := c.tier.resolve(ctx, root)
	if err != nil {
		return nil, "", 0, err
	}

	source := SourceFast

	payload, err := c.fast.Get(ctx, key)
	switch {
	case err == nil:
	case errors.Is(err, cache.ErrMiss):
		// The only downgraded error: a fast-tier miss falls back to the
		// durable tier.
		source = SourceDurable

		payload, err = c.tier.readBlob(ctx, rec)
		if err != nil {
			return nil, "", 0, err
		}

		// Repopulate best-effort; the durable copy already served this read.
		if setErr := c.fast.Set(ctx, key, payload, c.ttl); setErr != nil {
			c.logger.WarnContext(ctx, "fast tier repopulation failed",
				"root", root.String(),
				"error", setErr,
			)
		}
	default:
		return nil, "", 0, fmt.Errorf("fast tier get: %w", err)
	}

	tables, err := c.codec.Decode(payload)
	if err != nil {
		// Corruption is a hard failure, never treated as a miss.
		return nil, "", 0, err
	}

	s := structure.NewFromTables(root, tables)
	if rec != nil {
		s.DataVersion = rec.DataVersion
		s.EditedAt = rec.DataEditTimestamp
	}

	return s, source, len(payload), nil
}

// Delete removes the fast-tier entry under the currently resolvable key.
// The durable record and its blob stay intact; a later Get repopulates
// the fast tier from them. When storage-backed and no current record
// exists, Delete is a no-op.
func (c *Cache) Delete(ctx context.Context, root structure.Key) error {
	start := time.Now()
	err := c.delete(ctx, root)
	duration := time.Since(start)
	err = translateError(err)
	c.metrics.RecordDelete(duration, err)
	c.logger.LogDelete(ctx, root, err)

	return err
}

func (c *Cache) delete(ctx context.Context, root structure.Key) error {
	key, _, err := c.tier.resolve(ctx, root)
	if err != nil {
		// No resolvable key means no fast-tier entry to remove.
		if errors.Is(err, recordstore.ErrNotFound) {
			return nil
		}

		return err
	}

	if err := c.fast.Delete(ctx, key); err != nil {
		return fmt.Errorf("fast tier delete: %w", err)
	}

	return nil
}

// Purge removes root from every tier: the fast-tier entry, the durable
// record and all payload blobs. Purging an absent root is a no-op.
// Requires a durable store; otherwise it fails with
// ErrStorageNotConfigured (use Delete in volatile mode).
func (c *Cache) Purge(ctx context.Context, root structure.Key) error {
	start := time.Now()
	err := c.purge(ctx, root)
	duration := time.Since(start)
	err = translateError(err)
	c.metrics.RecordPurge(duration, err)
	c.logger.LogPurge(ctx, root, err)

	return err
}

func (c *Cache) purge(ctx context.Context, root structure.Key) error {
	st, ok := c.tier.(*storageTier)
	if !ok {
		return ErrStorageNotConfigured
	}

	// Drop the fast-tier entry first so no reader is served a payload
	// whose record is about to vanish.
	key, _, err := c.tier.resolve(ctx, root)
	switch {
	case errors.Is(err, recordstore.ErrNotFound):
		// No record, so no resolvable fast-tier entry either.
	case err != nil:
		return err
	default:
		if err := c.fast.Delete(ctx, key); err != nil {
			return fmt.Errorf("fast tier delete: %w", err)
		}
	}

	return st.records.Delete(ctx, root)
}

// Warm pre-populates the fast tier from the durable tier for the given
// roots, e.g. after a deploy or a cache flush. Roots without a current
// record are skipped, as are roots already cached. It returns the number
// of entries written. Requires a durable store.
func (c *Cache) Warm(ctx context.Context, roots []structure.Key) (int, error) {
	start := time.Now()
	warmed, err := c.warm(ctx, roots)
	duration := time.Since(start)
	err = translateError(err)
	c.metrics.RecordWarm(len(roots), warmed, duration)
	c.logger.LogWarm(ctx, len(roots), warmed, err)

	return warmed, err
}

func (c *Cache) warm(ctx context.Context, roots []structure.Key) (int, error) {
	if _, ok := c.tier.(*storageTier); !ok {
		return 0, ErrStorageNotConfigured
	}

	var warmed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	// Limit concurrency to protect the durable tier.
	g.SetLimit(c.warmConcurrency)

	for _, root := range roots {
		g.Go(func() error {
			if c.warmLimiter != nil {
				if err := c.warmLimiter.Wait(gctx); err != nil {
					return err
				}
			}

			key, rec, err := c.tier.resolve(gctx, root)
			if err != nil {
				if errors.Is(err, recordstore.ErrNotFound) {
					return nil // nothing durable to warm from
				}

				return err
			}

			if _, err := c.fast.Get(gctx, key); err == nil {
				return nil // already cached
			}

			payload, err := c.tier.readBlob(gctx, rec)
			if err != nil {
				if errors.Is(err, recordstore.ErrNotFound) {
					return nil // blob pruned since resolve
				}

				return err
			}

			if err := c.fast.Set(gctx, key, payload, c.ttl); err != nil {
				return fmt.Errorf("fast tier set: %w", err)
			}

			warmed.Add(1)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(warmed.Load()), err
	}

	return int(warmed.Load()), nil
}

// Close releases resources held by the fast tier client.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}

	return c.fast.Close()
}
