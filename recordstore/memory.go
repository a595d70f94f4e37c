package recordstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/blockcache/blobstore"
	"github.com/hupe1980/blockcache/structure"
)

// Memory is an in-process Store implementation for testing and
// single-node setups. Records live in a map; payload blobs live in the
// supplied blob store.
type Memory struct {
	mu      sync.RWMutex
	records map[structure.Key]Record
	blobs   blobstore.Store
	keep    int
}

// NewMemory creates an in-memory record store writing payload blobs to
// blobs.
func NewMemory(blobs blobstore.Store, optFns ...func(o *Options)) *Memory {
	o := DefaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}
	return &Memory{
		records: make(map[structure.Key]Record),
		blobs:   blobs,
		keep:    o.KeepBlobs,
	}
}

// GetCurrent returns the current record for root.
func (m *Memory) GetCurrent(_ context.Context, root structure.Key) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[root]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, root)
	}
	return rec, nil
}

// Upsert writes the payload blob, replaces the record and prunes
// superseded blobs.
func (m *Memory) Upsert(ctx context.Context, root structure.Key, fields VersionFields, payload []byte) (Record, error) {
	ref := BlobRef(root, fields, time.Now())

	if err := m.blobs.Put(ctx, ref, payload); err != nil {
		return Record{}, fmt.Errorf("write payload blob: %w", err)
	}

	rec := Record{
		DataUsageKey:                root,
		DataVersion:                 fields.DataVersion,
		DataEditTimestamp:           fields.DataEditTimestamp,
		TransformersSchemaVersion:   fields.TransformersSchemaVersion,
		BlockStructureSchemaVersion: fields.BlockStructureSchemaVersion,
		BlobRef:                     ref,
	}

	m.mu.Lock()
	m.records[root] = rec
	m.mu.Unlock()

	// The record is already durable; pruning only reclaims space.
	if _, err := PruneBlobs(ctx, m.blobs, root, m.keep); err != nil {
		return rec, fmt.Errorf("prune payload blobs: %w", err)
	}

	return rec, nil
}

// ReadBlob returns the payload bytes the record points at.
func (m *Memory) ReadBlob(ctx context.Context, rec Record) ([]byte, error) {
	data, err := m.blobs.Read(ctx, rec.BlobRef)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: payload blob %s", ErrNotFound, rec.BlobRef)
		}
		return nil, err
	}
	return data, nil
}

// Delete removes the record and all payload blobs of root.
func (m *Memory) Delete(ctx context.Context, root structure.Key) error {
	m.mu.Lock()
	delete(m.records, root)
	m.mu.Unlock()

	return DeleteBlobs(ctx, m.blobs, root)
}
