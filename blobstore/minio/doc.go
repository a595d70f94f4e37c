// Package minio provides a blobstore.Store backed by MinIO or any
// S3-compatible object store.
//
// Use it for self-hosted object storage:
//
//	client, _ := minio.New("localhost:9000", &minio.Options{
//	    Creds: credentials.NewStaticV4(accessKey, secretKey, ""),
//	})
//	store := miniostore.New(client, "block-structures", "payloads/")
package minio
