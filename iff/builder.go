package iff

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Builder assembles a chunk stream in memory. Errors are sticky and
// reported by Bytes.
type Builder struct {
	buf   []byte
	stack []openGroup
	align int64
	err   error
}

type openGroup struct {
	hdr int
	q   int64
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Group opens a group chunk. Chunks added until the matching End become its
// children.
func (b *Builder) Group(tag, name Tag) *Builder {
	if b.err != nil {
		return b
	}
	if !tag.IsGroup() {
		b.err = fmt.Errorf("iff: %s is not a group tag", tag)
		return b
	}
	b.top(tag)
	hdr := len(b.buf)
	b.buf = append(b.buf, tag[:]...)
	b.buf = binary.BigEndian.AppendUint32(b.buf, 0)
	b.buf = append(b.buf, name[:]...)
	b.stack = append(b.stack, openGroup{hdr: hdr, q: tag.Alignment()})
	return b
}

// End closes the innermost open group.
func (b *Builder) End() *Builder {
	if b.err != nil {
		return b
	}
	if len(b.stack) == 0 {
		b.err = errors.New("iff: End without Group")
		return b
	}
	g := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]

	n := len(b.buf) - g.hdr - 8
	if int64(n) > math.MaxUint32 {
		b.err = fmt.Errorf("iff: group of %d bytes is too large", n)
		return b
	}
	binary.BigEndian.PutUint32(b.buf[g.hdr+4:], uint32(n))
	b.pad(int64(n))
	return b
}

// Chunk appends a leaf chunk.
func (b *Builder) Chunk(tag Tag, payload []byte) *Builder {
	if b.err != nil {
		return b
	}
	if int64(len(payload)) > math.MaxUint32 {
		b.err = fmt.Errorf("iff: chunk %s of %d bytes is too large", tag, len(payload))
		return b
	}
	b.top(tag)
	b.buf = append(b.buf, tag[:]...)
	b.buf = binary.BigEndian.AppendUint32(b.buf, uint32(len(payload)))
	b.buf = append(b.buf, payload...)
	b.pad(int64(len(payload)))
	return b
}

// Value appends a leaf chunk holding v, big-endian. v is a fixed-size value
// or a slice of them.
func (b *Builder) Value(tag Tag, v any) *Builder {
	if b.err != nil {
		return b
	}
	payload, err := binary.Append(nil, binary.BigEndian, v)
	if err != nil {
		b.err = fmt.Errorf("iff: chunk %s: %w", tag, err)
		return b
	}
	return b.Chunk(tag, payload)
}

// String appends a leaf chunk holding s and a terminating NUL.
func (b *Builder) String(tag Tag, s string) *Builder {
	payload := make([]byte, 0, len(s)+1)
	payload = append(payload, s...)
	return b.Chunk(tag, append(payload, 0))
}

// Bytes returns the stream. All groups must be closed.
func (b *Builder) Bytes() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.stack) > 0 {
		return nil, fmt.Errorf("iff: %d groups not closed", len(b.stack))
	}
	return b.buf, nil
}

// top records the stream alignment from the first top-level chunk.
func (b *Builder) top(tag Tag) {
	if len(b.stack) == 0 && b.align == 0 {
		b.align = tag.Alignment()
	}
}

func (b *Builder) pad(n int64) {
	q := b.align
	if len(b.stack) > 0 {
		q = b.stack[len(b.stack)-1].q
	}
	for range Padding(n, q) {
		b.buf = append(b.buf, 0)
	}
}
