// Package codec serializes block structure tables into self-describing,
// compressed, checksummed payloads.
//
// Codec selection is intentionally a breaking-change boundary: payloads
// written by one codec (or one format version) are never silently decoded
// by another. The codec's name and version participate in cache key
// construction upstream, so bumping either orphans previously cached
// payloads instead of misreading them.
//
// Every payload carries a fixed envelope: magic number, format version,
// codec id, compression id, uncompressed size and a CRC32 checksum of the
// compressed body. Any envelope, checksum, decompression or body failure
// surfaces as ErrCorruptPayload, which callers must keep distinct from
// "not found".
package codec
