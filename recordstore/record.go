package recordstore

import (
	"time"

	"github.com/hupe1980/blockcache/structure"
)

// Record is the durable row for one root block. At most one current
// record exists per root; Upsert replaces it.
type Record struct {
	// DataUsageKey is the root block the record belongs to. Unique.
	DataUsageKey structure.Key

	// DataVersion is the producer's opaque version token for the source
	// content.
	DataVersion string

	// DataEditTimestamp is the last-modified time of the source content.
	// Zero means "unknown".
	DataEditTimestamp time.Time

	// TransformersSchemaVersion is the version of the annotation payload
	// encoding at write time.
	TransformersSchemaVersion string

	// BlockStructureSchemaVersion identifies the codec (name and version)
	// that sealed the payload.
	BlockStructureSchemaVersion string

	// BlobRef names the payload blob in the blob store.
	BlobRef string
}

// VersionFields are the version-bearing fields of a record, supplied by
// the caller on Upsert. Together with the root they determine the cache
// key of the entry.
type VersionFields struct {
	DataVersion                 string
	DataEditTimestamp           time.Time
	TransformersSchemaVersion   string
	BlockStructureSchemaVersion string
}

// FormatTime renders record timestamps the way version fields and cache
// keys do: RFC3339Nano in UTC, with the zero time rendered empty.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseTime is the inverse of FormatTime.
func ParseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
