package archive

import (
	"encoding/binary"
	"fmt"
	"slices"
	"unsafe"

	"github.com/hupe1980/sceneconv/data"
)

// hostLittleEndian reports whether element memory already has the on-disk
// byte order.
var hostLittleEndian = binary.NativeEndian.Uint16([]byte{1, 0}) == 1

// EncodeData returns the raw payload of d: little-endian components for
// fixed-size kinds, length-prefixed strings for string kinds.
func EncodeData(d data.Data) []byte {
	if d.Kind() == data.KindString {
		if d.IsArray() {
			v, _ := data.Values[string](d)
			return EncodeStrings(v)
		}
		return EncodeStrings([]string{d.Any().(string)})
	}
	n := d.Len() * d.Kind().Size()
	p := data.Pointer(d)
	if n == 0 || p == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, unsafe.Slice((*byte)(p), n))
	if !hostLittleEndian {
		swapComponents(out, componentBytes(d.Kind()))
	}
	return out
}

// DecodeData builds a container of kind k holding n elements decoded from
// raw. array selects a sequence or a single value.
func DecodeData(k data.Kind, array bool, raw []byte, n int) (data.Data, error) {
	if k == data.KindString {
		s, err := DecodeStrings(raw, n)
		if err != nil {
			return nil, err
		}
		if !array {
			if len(s) != 1 {
				return nil, fmt.Errorf("%w: %d strings for a single value", ErrCorrupt, len(s))
			}
			return data.NewValue(s[0]), nil
		}
		return data.NewArray(s), nil
	}
	if want := n * k.Size(); len(raw) != want {
		return nil, fmt.Errorf("%w: %d bytes for %d x %s", ErrCorrupt, len(raw), n, k)
	}
	if n == 0 {
		return data.New(k, array, 0)
	}
	if !array && n != 1 {
		return nil, fmt.Errorf("%w: %d elements for a single value", ErrCorrupt, n)
	}
	d, err := data.New(k, array, n)
	if err != nil {
		return nil, err
	}
	// Copy into the container's own memory; raw sits at an arbitrary offset
	// inside the block and is not aligned for k.
	dst := unsafe.Slice((*byte)(data.Pointer(d)), len(raw))
	copy(dst, raw)
	if !hostLittleEndian {
		swapComponents(dst, componentBytes(k))
	}
	return d, nil
}

func componentBytes(k data.Kind) int {
	l := k.Layout()
	if l.Count == 0 {
		return 0
	}
	return k.Size() / l.Count
}

// swapComponents reverses the bytes of every size-byte component of b.
func swapComponents(b []byte, size int) {
	if size <= 1 {
		return
	}
	for i := 0; i+size <= len(b); i += size {
		slices.Reverse(b[i : i+size])
	}
}

// EncodeStrings encodes each string as a uvarint length followed by its
// bytes.
func EncodeStrings(values []string) []byte {
	size := 0
	for _, s := range values {
		size += binary.MaxVarintLen64 + len(s)
	}
	out := make([]byte, 0, size)
	for _, s := range values {
		out = binary.AppendUvarint(out, uint64(len(s)))
		out = append(out, s...)
	}
	return out
}

// DecodeStrings decodes n strings written by EncodeStrings.
func DecodeStrings(raw []byte, n int) ([]string, error) {
	out := make([]string, 0, n)
	for i := range n {
		l, m := binary.Uvarint(raw)
		if m <= 0 || uint64(len(raw)-m) < l {
			return nil, fmt.Errorf("%w: truncated string %d", ErrCorrupt, i)
		}
		raw = raw[m:]
		out = append(out, string(raw[:l]))
		raw = raw[l:]
	}
	if len(raw) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after %d strings", ErrCorrupt, len(raw), n)
	}
	return out, nil
}

func encodeIndices(indices []int32) []byte {
	out := make([]byte, 4*len(indices))
	for i, v := range indices {
		binary.LittleEndian.PutUint32(out[4*i:], uint32(v))
	}
	return out
}

func decodeIndices(raw []byte) ([]int32, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("%w: index block of %d bytes", ErrCorrupt, len(raw))
	}
	out := make([]int32, len(raw)/4)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return out, nil
}
