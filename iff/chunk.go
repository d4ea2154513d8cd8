package iff

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
)

// Chunk is a node of the chunk tree. Group chunks list their children on
// first access.
type Chunk struct {
	f      *File
	tag    Tag
	off    int64 // header offset, -1 for the root
	data   int64 // payload offset
	length int64
	group  bool
	name   Tag

	once sync.Once
	kids []*Chunk
	err  error
}

// Tag returns the chunk type.
func (c *Chunk) Tag() Tag { return c.tag }

// Len returns the declared payload length.
func (c *Chunk) Len() int64 { return c.length }

// Offset returns the offset of the chunk header, or -1 for the root.
func (c *Chunk) Offset() int64 { return c.off }

// IsGroup reports whether the chunk contains children.
func (c *Chunk) IsGroup() bool { return c.group }

// GroupName returns the group name of a group chunk. It is zero for leaf
// chunks and the root.
func (c *Chunk) GroupName() Tag { return c.name }

// IsGroupOf reports whether c is a group named name.
func (c *Chunk) IsGroupOf(name Tag) bool { return c.group && c.off >= 0 && c.name == name }

func (c *Chunk) String() string {
	if c.group && c.off >= 0 {
		return fmt.Sprintf("%s %s (%d bytes at %d)", c.tag, c.name, c.length, c.off)
	}
	return fmt.Sprintf("%s (%d bytes at %d)", c.tag, c.length, c.off)
}

// Children returns the child chunks of a group, in stream order. Leaf
// chunks have none.
func (c *Chunk) Children() ([]*Chunk, error) {
	if !c.group {
		return nil, nil
	}
	c.once.Do(func() { c.kids, c.err = c.scan() })
	return c.kids, c.err
}

// Find returns the first child with the given tag.
func (c *Chunk) Find(tag Tag) (*Chunk, bool, error) {
	kids, err := c.Children()
	if err != nil {
		return nil, false, err
	}
	for _, k := range kids {
		if k.tag == tag {
			return k, true, nil
		}
	}
	return nil, false, nil
}

func (c *Chunk) start() int64 {
	if c.off < 0 {
		return 0
	}
	return c.data + 4
}

func (c *Chunk) end() int64 {
	if c.off < 0 {
		return c.length
	}
	return c.data + c.length
}

func (c *Chunk) scan() ([]*Chunk, error) {
	q := c.tag.Alignment()
	end := c.end()

	var kids []*Chunk
	for pos := c.start(); pos < end; {
		if end-pos < 8 {
			return nil, c.f.errorf(pos, ErrTruncated)
		}
		var hdr [8]byte
		if err := c.f.readFull(hdr[:], pos); err != nil {
			return nil, err
		}
		k := &Chunk{
			f:      c.f,
			off:    pos,
			data:   pos + 8,
			length: int64(binary.BigEndian.Uint32(hdr[4:])),
		}
		copy(k.tag[:], hdr[:4])
		if k.data+k.length > end {
			return nil, c.f.errorf(pos, fmt.Errorf("%w: %s needs %d bytes, %d left", ErrTruncated, k.tag, k.length, end-k.data))
		}
		if k.tag.IsGroup() {
			if k.length < 4 {
				return nil, c.f.errorf(pos, fmt.Errorf("%w: group %s has no name", ErrTruncated, k.tag))
			}
			if err := c.f.readFull(k.name[:], k.data); err != nil {
				return nil, err
			}
			k.group = true
		}
		kids = append(kids, k)
		pos = k.data + k.length + Padding(k.length, q)
	}
	return kids, nil
}

// Bytes returns a copy of the payload. For groups it starts with the group
// name.
func (c *Chunk) Bytes() ([]byte, error) {
	return c.payload(c.length)
}

func (c *Chunk) payload(n int64) ([]byte, error) {
	if n > c.length {
		return nil, c.f.errorf(c.off, fmt.Errorf("%w: %s holds %d bytes, need %d", ErrShortChunk, c.tag, c.length, n))
	}
	buf := make([]byte, n)
	if err := c.f.readFull(buf, c.data); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadString returns the payload up to the first NUL byte.
func (c *Chunk) ReadString() (string, error) {
	buf, err := c.Bytes()
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	return string(buf), nil
}

// Read decodes a single big-endian value of a fixed-size type from the
// start of the payload.
func Read[T any](c *Chunk) (T, error) {
	var v T
	size := binary.Size(v)
	if size < 0 {
		return v, fmt.Errorf("iff: %T has no fixed size", v)
	}
	buf, err := c.payload(int64(size))
	if err != nil {
		return v, err
	}
	if _, err := binary.Decode(buf, binary.BigEndian, &v); err != nil {
		return v, c.f.errorf(c.off, err)
	}
	return v, nil
}

// ReadSlice decodes as many big-endian values of a fixed-size type as the
// payload holds. Trailing bytes that do not form a whole value are ignored.
func ReadSlice[T any](c *Chunk) ([]T, error) {
	var zero T
	size := binary.Size(zero)
	if size <= 0 {
		return nil, fmt.Errorf("iff: %T has no fixed size", zero)
	}
	n := c.length / int64(size)
	out := make([]T, n)
	if n == 0 {
		return out, nil
	}
	buf, err := c.payload(n * int64(size))
	if err != nil {
		return nil, err
	}
	if _, err := binary.Decode(buf, binary.BigEndian, out); err != nil {
		return nil, c.f.errorf(c.off, err)
	}
	return out, nil
}
