// Package s3 stores archives in Amazon S3 and S3-compatible object stores.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("shots/"),
//	    s3.WithRegion("us-east-1"),
//	)
//	w, err := archive.Create(ctx, store, "sh010.scn")
//
// # Stores
//
//   - Store: ranged GETs for reads, multipart uploads with CRC32C checksums
//     for writes.
//   - ExpressStore: S3 Express One Zone directory buckets. Publishing
//     appends a numbered commit object with PutIfNotExists, so concurrent
//     publishers cannot overwrite each other.
//   - DDBCommitStore: keeps the CURRENT pointer in DynamoDB so concurrent
//     publishers cannot overwrite each other.
package s3
