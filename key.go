package blockcache

import (
	"fmt"
	"strings"

	"github.com/hupe1980/blockcache/codec"
	"github.com/hupe1980/blockcache/recordstore"
	"github.com/hupe1980/blockcache/structure"
)

// EncodeKey derives the fast-tier key for a root.
//
// With a record (storage-backed mode) the key is a pure function of
// content identity and version: five field@value pairs in fixed order,
// joined by ':'. Any version change produces a new key, so entries for
// the old version are never read again and simply expire.
//
// Without a record the key is static per root, prefixed with the codec
// version. Content changes then reuse the same slot; invalidation is the
// caller's job via Delete.
func EncodeKey(c codec.Codec, root structure.Key, rec *recordstore.Record) string {
	if rec == nil {
		return fmt.Sprintf("v%d.root.key.%s", c.Version(), root)
	}

	return strings.Join([]string{
		"data_usage_key@" + string(rec.DataUsageKey),
		"data_version@" + rec.DataVersion,
		"data_edit_timestamp@" + recordstore.FormatTime(rec.DataEditTimestamp),
		"transformers_schema_version@" + rec.TransformersSchemaVersion,
		"block_structure_schema_version@" + rec.BlockStructureSchemaVersion,
	}, ":")
}
