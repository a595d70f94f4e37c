package blockcache

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hupe1980/blockcache/codec"
	"github.com/hupe1980/blockcache/recordstore"
	"github.com/hupe1980/blockcache/structure"
)

// tier is the storage strategy selected at construction: pure volatile
// or backed by a durable record store. It owns key derivation and the
// durable half of Add and Get.
type tier interface {
	// commit persists the payload durably (when the tier has a durable
	// half) and returns the fast-tier key for the structure.
	commit(ctx context.Context, s *structure.BlockStructure, payload []byte) (string, error)

	// resolve returns the fast-tier key for root and, when
	// storage-backed, the current record. Fails with
	// recordstore.ErrNotFound when storage-backed and no record exists.
	resolve(ctx context.Context, root structure.Key) (string, *recordstore.Record, error)

	// readBlob returns the durable payload for a resolved record, or
	// recordstore.ErrNotFound when the tier has no durable half.
	readBlob(ctx context.Context, rec *recordstore.Record) ([]byte, error)
}

// volatileTier serves pure fast-cache mode: static per-root keys, no
// fallback below the fast tier.
type volatileTier struct {
	codec codec.Codec
}

func (t *volatileTier) commit(_ context.Context, s *structure.BlockStructure, _ []byte) (string, error) {
	return EncodeKey(t.codec, s.Root, nil), nil
}

func (t *volatileTier) resolve(_ context.Context, root structure.Key) (string, *recordstore.Record, error) {
	return EncodeKey(t.codec, root, nil), nil, nil
}

func (t *volatileTier) readBlob(context.Context, *recordstore.Record) ([]byte, error) {
	return nil, fmt.Errorf("%w: no durable tier", recordstore.ErrNotFound)
}

// storageTier writes every payload through a durable record store and
// derives version-bearing keys from its records.
type storageTier struct {
	codec   codec.Codec
	records recordstore.Store
}

// versionFields derives the record's version fields from the structure
// and the configured codec. The schema versions come from the codec so
// that a codec or format bump orphans all previously cached entries.
func (t *storageTier) versionFields(s *structure.BlockStructure) recordstore.VersionFields {
	return recordstore.VersionFields{
		DataVersion:                 s.DataVersion,
		DataEditTimestamp:           s.EditedAt,
		TransformersSchemaVersion:   strconv.FormatUint(uint64(codec.TransformersSchemaVersion), 10),
		BlockStructureSchemaVersion: fmt.Sprintf("%s.v%d", t.codec.Name(), t.codec.Version()),
	}
}

func (t *storageTier) commit(ctx context.Context, s *structure.BlockStructure, payload []byte) (string, error) {
	rec, err := t.records.Upsert(ctx, s.Root, t.versionFields(s), payload)
	if err != nil {
		return "", fmt.Errorf("upsert record: %w", err)
	}

	return EncodeKey(t.codec, s.Root, &rec), nil
}

func (t *storageTier) resolve(ctx context.Context, root structure.Key) (string, *recordstore.Record, error) {
	rec, err := t.records.GetCurrent(ctx, root)
	if err != nil {
		return "", nil, err
	}

	return EncodeKey(t.codec, root, &rec), &rec, nil
}

func (t *storageTier) readBlob(ctx context.Context, rec *recordstore.Record) ([]byte, error) {
	return t.records.ReadBlob(ctx, *rec)
}
