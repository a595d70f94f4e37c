// Package s3 provides an Amazon S3 backed blobstore.Store.
//
// Blob names map to object keys under a configurable root prefix. Writes
// go through the S3 upload manager, so large payloads are uploaded in
// parts transparently.
//
// Construct a client with the standard AWS config chain:
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	store := s3.New(s3.NewFromConfig(cfg), "my-bucket", "block-structures/")
package s3
