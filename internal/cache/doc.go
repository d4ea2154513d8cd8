// Package cache provides in-memory LRU caching for immutable blocks.
//
// Two key spaces share one cache: raw blob blocks fetched through
// blobstore.CachingStore, and decompressed sample blocks read by the
// archive reader. Keys carry the blob path so writes to a blob can
// invalidate everything cached for it.
//
// ShardedLRUBlockCache spreads keys over 64 shards by an xxHash64 of the
// key. Every shard charges its bytes against an optional
// resource.Controller, so cached samples count toward the process memory
// limit.
package cache
