// Package mmap maps archive files read-only into memory.
//
// The local blob store opens every archive through a Mapping, so block
// reads are plain copies out of the page cache. Regions expose byte ranges
// of a mapping as readers without copying the whole range.
//
//	m, err := mmap.Open("shot.scn")
//	if err != nil {
//	    return err
//	}
//	defer m.Close()
//	_ = m.Advise(mmap.AccessRandom)
//
// Slices returned by Bytes are only valid until Close.
package mmap
