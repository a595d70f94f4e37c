// Package blobstore abstracts storage of opaque payload blobs.
//
// Payloads are written and read whole: cached block structure payloads
// are decoded in one piece, so the interface is Put/Read rather than
// streaming handles. Implementations:
//
//   - Memory: in-process map, for tests and single-node setups
//   - Local: local filesystem with atomic writes
//   - s3.Store: Amazon S3 (subpackage blobstore/s3)
//   - minio.Store: MinIO and S3-compatible object stores
//     (subpackage blobstore/minio)
//
// Blob names use forward slashes as separators on every backend; callers
// group related blobs under a shared name prefix.
package blobstore
