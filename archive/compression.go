package archive

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/sceneconv/internal/conv"
	"github.com/hupe1980/sceneconv/internal/hash"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the block compression algorithm.
type Compression uint8

const (
	// CompressionNone stores blocks as is.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast, the default).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses ZSTD (better ratio, slower to write).
	CompressionZSTD Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

// ParseCompression maps a name accepted by String back to a Compression.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "none", "":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return 0, fmt.Errorf("archive: unknown compression %q", s)
	}
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Block format: [uncompressed u32][compressed u32][crc32c u32][data...].
// A compressed size of 0 means the data is stored raw. The checksum covers
// the uncompressed payload.
const blockHeaderSize = 12

var errShortBlock = errors.New("archive: block too small")

// encodeBlock frames payload as a block, compressing it when that saves more
// than 10%.
func encodeBlock(payload []byte, c Compression) ([]byte, error) {
	var compressed []byte
	switch c {
	case CompressionLZ4:
		if len(payload) > 0 {
			buf := make([]byte, lz4.CompressBlockBound(len(payload)))
			n, err := lz4.CompressBlock(payload, buf, nil)
			if err != nil {
				return nil, err
			}
			compressed = buf[:n]
		}
	case CompressionZSTD:
		if len(payload) > 0 {
			enc := getZstdEncoder()
			compressed = enc.EncodeAll(payload, nil)
			zstdEncoderPool.Put(enc)
		}
	case CompressionNone:
	default:
		return nil, fmt.Errorf("archive: unknown compression %d", c)
	}

	if len(compressed) == 0 || float64(len(compressed)) > float64(len(payload))*0.9 {
		compressed = nil
	}

	body := payload
	if compressed != nil {
		body = compressed
	}
	rawLen, err := conv.IntToUint32(len(payload))
	if err != nil {
		return nil, fmt.Errorf("archive: block: %w", err)
	}
	compLen, err := conv.IntToUint32(len(compressed))
	if err != nil {
		return nil, fmt.Errorf("archive: block: %w", err)
	}
	out := make([]byte, blockHeaderSize+len(body))
	binary.LittleEndian.PutUint32(out[0:], rawLen)
	binary.LittleEndian.PutUint32(out[4:], compLen)
	binary.LittleEndian.PutUint32(out[8:], hash.CRC32C(payload))
	copy(out[blockHeaderSize:], body)
	return out, nil
}

// blockSizes reads the uncompressed size from a block header.
func blockSizes(block []byte) (uncompressed, compressed uint32, err error) {
	if len(block) < blockHeaderSize {
		return 0, 0, errShortBlock
	}
	return binary.LittleEndian.Uint32(block[0:]), binary.LittleEndian.Uint32(block[4:]), nil
}

// decodeBlock verifies and decompresses a block read at offset.
func decodeBlock(name string, offset int64, block []byte, c Compression) ([]byte, error) {
	uncompressedSize, compressedSize, err := blockSizes(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %w at %d", ErrCorrupt, err, offset)
	}
	want := binary.LittleEndian.Uint32(block[8:])
	body := block[blockHeaderSize:]

	var out []byte
	if compressedSize == 0 {
		if uint32(len(body)) < uncompressedSize {
			return nil, fmt.Errorf("%w: raw block at %d truncated", ErrCorrupt, offset)
		}
		out = body[:uncompressedSize]
	} else {
		if uint32(len(body)) < compressedSize {
			return nil, fmt.Errorf("%w: compressed block at %d truncated", ErrCorrupt, offset)
		}
		body = body[:compressedSize]
		out = make([]byte, uncompressedSize)
		switch c {
		case CompressionZSTD:
			dec := getZstdDecoder()
			decoded, err := dec.DecodeAll(body, out[:0])
			zstdDecoderPool.Put(dec)
			if err != nil {
				return nil, fmt.Errorf("%w: block at %d: %w", ErrCorrupt, offset, err)
			}
			out = decoded
		default:
			n, err := lz4.UncompressBlock(body, out)
			if err != nil {
				return nil, fmt.Errorf("%w: block at %d: %w", ErrCorrupt, offset, err)
			}
			out = out[:n]
		}
		if uint32(len(out)) != uncompressedSize {
			return nil, fmt.Errorf("%w: block at %d decompressed to %d bytes, want %d", ErrCorrupt, offset, len(out), uncompressedSize)
		}
	}

	if got := hash.CRC32C(out); got != want {
		return nil, &ChecksumError{Archive: name, Offset: offset, Want: want, Got: got}
	}
	return out, nil
}
