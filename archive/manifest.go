package archive

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/hupe1980/sceneconv/codec"
)

const (
	magic      = "SCNA"
	footerSize = 8 + 8 + 4
)

// manifest is the object tree stored at the end of an archive.
type manifest struct {
	ArchiveID string     `json:"archive_id"`
	CreatedAt time.Time  `json:"created_at"`
	Root      objectInfo `json:"root"`
}

type objectInfo struct {
	Name       string         `json:"name"`
	Schema     string         `json:"schema,omitempty"`
	Times      []float64      `json:"times,omitempty"`
	Samples    int            `json:"samples"`
	Properties []propertyInfo `json:"properties,omitempty"`
	Arbitrary  []propertyInfo `json:"arbitrary,omitempty"`
	Children   []objectInfo   `json:"children,omitempty"`
}

type propertyInfo struct {
	Header PropertyHeader `json:"header"`
	// FirstSample is the object sample at which the property first appeared.
	FirstSample int         `json:"first_sample,omitempty"`
	Samples     []sampleRef `json:"samples"`
}

type sampleRef struct {
	Data    blockRef  `json:"data"`
	Count   int       `json:"count"`
	Indices *blockRef `json:"indices,omitempty"`
}

type blockRef struct {
	Offset int64 `json:"offset"`
	Length int64 `json:"length"`
}

// header is the fixed prefix of an archive.
type header struct {
	Version     int
	Compression Compression
	Codec       string
}

func (h header) encode() []byte {
	buf := make([]byte, 0, len(magic)+4+len(h.Codec))
	buf = append(buf, magic...)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(h.Version))
	buf = append(buf, byte(h.Compression), byte(len(h.Codec)))
	return append(buf, h.Codec...)
}

// headerPrefixSize is the header size without the codec name.
const headerPrefixSize = len(magic) + 4

func decodeHeader(name string, buf []byte) (header, int, error) {
	if len(buf) < headerPrefixSize || string(buf[:len(magic)]) != magic {
		return header{}, 0, fmt.Errorf("%w: %s", ErrNotArchive, name)
	}
	h := header{
		Version:     int(binary.LittleEndian.Uint16(buf[4:])),
		Compression: Compression(buf[6]),
	}
	n := headerPrefixSize + int(buf[7])
	if len(buf) < n {
		return header{}, 0, fmt.Errorf("%w: %s: truncated header", ErrCorrupt, name)
	}
	h.Codec = string(buf[headerPrefixSize:n])
	if h.Version != FormatVersionLegacy && h.Version != FormatVersionCurrent {
		return header{}, 0, fmt.Errorf("%w: %s has version %d", ErrUnsupportedVersion, name, h.Version)
	}
	if h.Compression > CompressionZSTD {
		return header{}, 0, fmt.Errorf("%w: %s: unknown compression %d", ErrCorrupt, name, h.Compression)
	}
	if _, ok := codec.ByName(h.Codec); !ok {
		return header{}, 0, fmt.Errorf("%w: %s: unknown codec %q", ErrCorrupt, name, h.Codec)
	}
	return h, n, nil
}

func encodeFooter(ref blockRef) []byte {
	buf := make([]byte, 0, footerSize)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(ref.Offset))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(ref.Length))
	return append(buf, magic...)
}

func decodeFooter(name string, buf []byte, size int64) (blockRef, error) {
	if len(buf) != footerSize || string(buf[16:]) != magic {
		return blockRef{}, fmt.Errorf("%w: %s: missing footer", ErrNotArchive, name)
	}
	ref := blockRef{
		Offset: int64(binary.LittleEndian.Uint64(buf[0:])),
		Length: int64(binary.LittleEndian.Uint64(buf[8:])),
	}
	if ref.Offset < 0 || ref.Length < blockHeaderSize || ref.Offset+ref.Length > size-footerSize {
		return blockRef{}, fmt.Errorf("%w: %s: manifest at %d+%d outside archive", ErrCorrupt, name, ref.Offset, ref.Length)
	}
	return ref, nil
}
