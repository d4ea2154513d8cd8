// Package conv narrows integers for on-disk length and count fields.
//
// Archive blocks and PDC records store lengths as uint32. Writers route
// every such length through this package so an oversized payload fails
// with ErrOverflow instead of wrapping silently.
package conv
