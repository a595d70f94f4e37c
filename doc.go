// Package blockcache provides a two-tier cache for block structures:
// trees of content blocks plus per-block annotation tables that are
// expensive to recompute.
//
// A fast volatile tier (in-memory or Redis) answers most reads; an
// optional durable tier (a record store over Badger, DynamoDB or any
// blob-backed store) makes entries survive cache flushes and process
// restarts. Cache keys encode the content version, so a new version
// lands in a new slot and stale entries are never read again; they
// simply expire.
//
// # Quick Start
//
// Volatile mode:
//
//	ctx := context.Background()
//
//	bc, _ := blockcache.New(cache.NewMemory())
//	defer bc.Close()
//
//	s := structure.New("course-v1/root")
//	s.SetChildren("course-v1/root", "course-v1/ch1", "course-v1/ch2")
//	s.SetBlockData("course-v1/ch1", []byte(`{"title":"Intro"}`))
//
//	_ = bc.Add(ctx, s)
//	got, _ := bc.Get(ctx, "course-v1/root")
//
// Storage-backed mode:
//
//	blobs, _ := blobstore.NewLocal("./data/blobs")
//	records := recordstore.NewMemory(blobs)
//
//	bc, _ := blockcache.New(fast, blockcache.WithDurableStore(records))
//
// With a durable store, Add writes the payload through to blob storage
// and upserts one record per root; Get falls back to the durable copy
// after a fast-tier miss and repopulates the fast tier.
//
// # Versioned Keys
//
// In storage-backed mode the fast-tier key is derived from the record's
// version fields. Publishing new content writes a new record, which
// yields a new key; readers of the old version keep hitting the old slot
// until it expires, and readers of the new version never see stale
// bytes. No invalidation message is needed.
//
// In volatile mode keys are static per root and Delete is the only
// invalidation.
//
// # Error Model
//
//   - ErrNotFound: no usable entry in any consulted tier. Recompute and Add.
//   - codec.ErrCorruptPayload: stored bytes fail to decode. Never masked
//     as a miss.
//   - Tier errors (cache or store unreachable) propagate unchanged; the
//     cache retries nothing.
package blockcache
