package iff

// Tag is a four character chunk identifier.
type Tag [4]byte

// MakeTag returns the tag spelled by s. s must be four bytes long.
func MakeTag(s string) Tag {
	if len(s) != 4 {
		panic("iff: tag must be four bytes: " + s)
	}
	var t Tag
	copy(t[:], s)
	return t
}

func (t Tag) String() string { return string(t[:]) }

var groupTags = map[Tag]struct{}{
	MakeTag("FORM"): {}, MakeTag("CAT "): {}, MakeTag("LIST"): {}, MakeTag("PROP"): {},
	MakeTag("FOR4"): {}, MakeTag("CAT4"): {}, MakeTag("LIS4"): {}, MakeTag("PRO4"): {},
	MakeTag("FOR8"): {}, MakeTag("CAT8"): {}, MakeTag("LIS8"): {}, MakeTag("PRO8"): {},
}

// IsGroup reports whether chunks with this tag contain child chunks.
func (t Tag) IsGroup() bool {
	_, ok := groupTags[t]
	return ok
}

// Alignment returns the byte alignment of the children of a group with
// this tag.
func (t Tag) Alignment() int64 {
	switch t[3] {
	case '8':
		return 8
	case '4':
		return 4
	default:
		return 2
	}
}

// Padding returns the number of bytes following a payload of length n
// inside a group aligned to q.
func Padding(n, q int64) int64 {
	return (q - n%q) % q
}
