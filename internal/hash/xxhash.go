package hash

import "github.com/cespare/xxhash/v2"

// Sum64 returns the xxHash64 digest of data.
func Sum64(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// Sum64String returns the xxHash64 digest of s without copying it.
func Sum64String(s string) uint64 {
	return xxhash.Sum64String(s)
}

// Combine mixes v into the running digest h.
func Combine(h, v uint64) uint64 {
	d := xxhash.New()
	var buf [16]byte
	putUint64(buf[:8], h)
	putUint64(buf[8:], v)
	_, _ = d.Write(buf[:])
	return d.Sum64()
}

func putUint64(b []byte, v uint64) {
	for i := range 8 {
		b[i] = byte(v >> (8 * i))
	}
}
