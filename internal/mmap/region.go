package mmap

import "io"

// Region is a window into a Mapping. It does not own the memory.
type Region struct {
	parent *Mapping
	offset int
	size   int
}

// Region returns the window [offset, offset+size) of m.
func (m *Mapping) Region(offset, size int) (*Region, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	if offset < 0 || size < 0 || offset+size > m.size {
		return nil, ErrOutOfBounds
	}
	return &Region{parent: m, offset: offset, size: size}, nil
}

// Bytes returns the region's memory, or nil once the parent is closed.
func (r *Region) Bytes() []byte {
	if r.parent.closed.Load() {
		return nil
	}
	return r.parent.data[r.offset : r.offset+r.size]
}

// Size returns the length of the region.
func (r *Region) Size() int { return r.size }

// Advise passes an access hint for the region to the kernel.
func (r *Region) Advise(pattern AccessPattern) error {
	if r.parent.closed.Load() {
		return ErrClosed
	}
	return osAdvise(r.parent.data[r.offset:r.offset+r.size], pattern)
}

// Reader returns a reader over the region. Reads fail with ErrClosed once
// the parent mapping is closed.
func (r *Region) Reader() io.Reader {
	return &regionReader{r: r}
}

type regionReader struct {
	r   *Region
	pos int
}

func (rr *regionReader) Read(p []byte) (int, error) {
	b := rr.r.Bytes()
	if b == nil && rr.r.size > 0 {
		return 0, ErrClosed
	}
	if rr.pos >= len(b) {
		return 0, io.EOF
	}
	n := copy(p, b[rr.pos:])
	rr.pos += n
	return n, nil
}
