package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	badger "github.com/dgraph-io/badger/v4"

	"github.com/hupe1980/blockcache/blobstore"
	"github.com/hupe1980/blockcache/recordstore"
	"github.com/hupe1980/blockcache/structure"
)

// keyPrefix namespaces record rows so the database can host other data.
const keyPrefix = "record/"

// storedRecord is the JSON row persisted per root. Timestamps are kept
// in their string rendering so rows stay readable in debugging tools.
type storedRecord struct {
	DataUsageKey                string `json:"data_usage_key"`
	DataVersion                 string `json:"data_version"`
	DataEditTimestamp           string `json:"data_edit_timestamp"`
	TransformersSchemaVersion   string `json:"transformers_schema_version"`
	BlockStructureSchemaVersion string `json:"block_structure_schema_version"`
	BlobRef                     string `json:"blob_ref"`
}

// Store is a recordstore.Store keeping record rows in Badger and payload
// blobs in the supplied blob store.
type Store struct {
	db    *badger.DB
	blobs blobstore.Store
	keep  int
}

var _ recordstore.Store = (*Store)(nil)

// New creates a record store on top of an open Badger database. The
// caller owns the database handle and is responsible for closing it.
func New(db *badger.DB, blobs blobstore.Store, optFns ...func(o *recordstore.Options)) *Store {
	o := recordstore.DefaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}

	return &Store{
		db:    db,
		blobs: blobs,
		keep:  o.KeepBlobs,
	}
}

func recordKey(root structure.Key) []byte {
	return []byte(keyPrefix + string(root))
}

// GetCurrent returns the current record for root.
func (s *Store) GetCurrent(_ context.Context, root structure.Key) (recordstore.Record, error) {
	var raw []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(root))
		if err != nil {
			return err
		}

		raw, err = item.ValueCopy(nil)

		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return recordstore.Record{}, fmt.Errorf("%w: %s", recordstore.ErrNotFound, root)
		}

		return recordstore.Record{}, fmt.Errorf("read record: %w", err)
	}

	return decodeRecord(raw)
}

// Upsert writes the payload blob, replaces the record row and prunes
// superseded blobs.
func (s *Store) Upsert(ctx context.Context, root structure.Key, fields recordstore.VersionFields, payload []byte) (recordstore.Record, error) {
	ref := recordstore.BlobRef(root, fields, time.Now())

	if err := s.blobs.Put(ctx, ref, payload); err != nil {
		return recordstore.Record{}, fmt.Errorf("write payload blob: %w", err)
	}

	rec := recordstore.Record{
		DataUsageKey:                root,
		DataVersion:                 fields.DataVersion,
		DataEditTimestamp:           fields.DataEditTimestamp,
		TransformersSchemaVersion:   fields.TransformersSchemaVersion,
		BlockStructureSchemaVersion: fields.BlockStructureSchemaVersion,
		BlobRef:                     ref,
	}

	raw, err := encodeRecord(rec)
	if err != nil {
		return recordstore.Record{}, err
	}

	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(root), raw)
	}); err != nil {
		return recordstore.Record{}, fmt.Errorf("write record: %w", err)
	}

	// The record is already durable; pruning only reclaims space.
	if _, err := recordstore.PruneBlobs(ctx, s.blobs, root, s.keep); err != nil {
		return rec, fmt.Errorf("prune payload blobs: %w", err)
	}

	return rec, nil
}

// ReadBlob returns the payload bytes the record points at.
func (s *Store) ReadBlob(ctx context.Context, rec recordstore.Record) ([]byte, error) {
	data, err := s.blobs.Read(ctx, rec.BlobRef)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: payload blob %s", recordstore.ErrNotFound, rec.BlobRef)
		}

		return nil, err
	}

	return data, nil
}

// Delete removes the record row and all payload blobs of root.
func (s *Store) Delete(ctx context.Context, root structure.Key) error {
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(recordKey(root))
	}); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}

	return recordstore.DeleteBlobs(ctx, s.blobs, root)
}

func encodeRecord(rec recordstore.Record) ([]byte, error) {
	raw, err := sonic.Marshal(storedRecord{
		DataUsageKey:                string(rec.DataUsageKey),
		DataVersion:                 rec.DataVersion,
		DataEditTimestamp:           recordstore.FormatTime(rec.DataEditTimestamp),
		TransformersSchemaVersion:   rec.TransformersSchemaVersion,
		BlockStructureSchemaVersion: rec.BlockStructureSchemaVersion,
		BlobRef:                     rec.BlobRef,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}

	return raw, nil
}

func decodeRecord(raw []byte) (recordstore.Record, error) {
	var row storedRecord
	if err := sonic.Unmarshal(raw, &row); err != nil {
		return recordstore.Record{}, fmt.Errorf("unmarshal record: %w", err)
	}

	at, err := recordstore.ParseTime(row.DataEditTimestamp)
	if err != nil {
		return recordstore.Record{}, fmt.Errorf("unmarshal record: %w", err)
	}

	return recordstore.Record{
		DataUsageKey:                structure.Key(row.DataUsageKey),
		DataVersion:                 row.DataVersion,
		DataEditTimestamp:           at,
		TransformersSchemaVersion:   row.TransformersSchemaVersion,
		BlockStructureSchemaVersion: row.BlockStructureSchemaVersion,
		BlobRef:                     row.BlobRef,
	}, nil
}
