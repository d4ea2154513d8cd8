// Package blobstore abstracts where archives live.
//
// A BlobStore holds immutable blobs: archives, and small pointer files such
// as the CURRENT file naming the latest published archive.
//
// # Implementations
//
//   - LocalStore: a directory; blobs are memory-mapped for reading and
//     written through a temporary file that is renamed into place.
//   - MemoryStore: in memory, for tests and scratch conversions.
//   - CachingStore: wraps any store with a block cache.
//   - s3.Store and minio.Store: object storage with range reads.
//
// # Interface
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Create(ctx, name) (WritableBlob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Blobs support random access through ReadAt and streaming through
// ReadRange, which remote stores map onto ranged GETs.
package blobstore
