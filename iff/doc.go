// Package iff reads and writes IFF chunk streams, the container used by
// Maya particle and hair caches.
//
// A stream is a sequence of chunks:
//
//	tag    4 bytes, ASCII
//	length u32, big-endian
//	[name] 4 bytes, group chunks only
//	data   length bytes (including the group name)
//	pad    to the alignment of the enclosing group
//
// Group tags are FORM, CAT , LIST and PROP, plus their 4 and 8 byte aligned
// variants (FOR4, FOR8, ...). The alignment of a group's children follows
// the last character of its tag: '4' aligns to 4 bytes, '8' to 8, anything
// else to 2.
//
// The children of a group are scanned once, on first access. All values
// are big-endian.
//
//	f, err := iff.Open(ctx, store, "particles.mc")
//	defer f.Close()
//	chunks, err := f.Root().Children()
package iff
