// Package recordstore persists the durable tier of the block structure
// cache: one current record per root block, pointing at a payload blob in
// a blobstore.Store.
//
// A record carries the version fields that make cached entries
// self-invalidating; whenever any of them changes, the cache key derived
// from the record changes with it. Upsert writes the payload blob first
// and then replaces the record, so a stored record always points at a
// readable blob. Superseded blobs are pruned down to a configurable
// number of retained versions.
//
// Implementations:
//
//   - Memory: in-process map, for tests and single-node setups
//   - badger.Store: embedded key-value storage (subpackage
//     recordstore/badger)
//   - dynamo.Store: DynamoDB table (subpackage recordstore/dynamo)
package recordstore
