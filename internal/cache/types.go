package cache

import "context"

// CacheKind separates key spaces.
type CacheKind uint8

const (
	CacheKindUnknown CacheKind = iota
	CacheKindBlob              // raw blob blocks read through blobstore.CachingStore
	CacheKindSample            // decompressed archive sample blocks
)

func (k CacheKind) String() string {
	switch k {
	case CacheKindBlob:
		return "blob"
	case CacheKindSample:
		return "sample"
	default:
		return "unknown"
	}
}

// CacheKey identifies an immutable block.
type CacheKey struct {
	Kind CacheKind
	// Path names the blob (or archive) the block belongs to.
	Path string
	// Archive distinguishes archives published under the same path. Zero for
	// raw blob blocks.
	Archive uint64
	// Offset is the block index (blob blocks) or byte offset (samples).
	Offset uint64
}

// BlockCache is a byte-oriented cache for immutable blocks.
// Returned slices must be treated as read-only.
type BlockCache interface {
	// Get returns a cached block. ok=false if missing.
	Get(ctx context.Context, key CacheKey) (b []byte, ok bool)
	// Set caches a block. The cache retains b; callers must not modify it.
	Set(ctx context.Context, key CacheKey, b []byte)
	// Invalidate removes entries matching the predicate.
	Invalidate(predicate func(key CacheKey) bool)
	// Close releases any resources.
	Close() error
	// Stats returns cache statistics.
	Stats() (hits, misses int64)
}

// ForPath returns a predicate matching every key of the given kind and path.
func ForPath(kind CacheKind, path string) func(CacheKey) bool {
	return func(k CacheKey) bool {
		return k.Kind == kind && k.Path == path
	}
}
