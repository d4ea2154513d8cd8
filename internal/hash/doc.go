// Package hash provides the checksums and digests used by the archive format.
//
// # CRC32-Castagnoli (CRC32C)
//
// Every archive block carries a CRC32C of its uncompressed payload. Go's
// crc32 package uses the SSE4.2 and ARM CRC instructions when available.
//
//	checksum := hash.CRC32C(payload)
//
// For streaming checksums (uploads):
//
//	h := hash.NewCRC32C()
//	h.Write(chunk1)
//	h.Write(chunk2)
//	checksum := h.Sum32()
//
// # xxHash64
//
// Sum64 identifies block payloads for deduplication and spreads cache keys
// across shards. It is not a checksum of record; the archive writer only
// treats two payloads as identical when length and CRC32C match as well.
package hash
