// Package f16 converts IEEE-754 binary16 values, the element type of half
// float containers.
package f16

import "math"

// Bits is a binary16 bit pattern: 1 sign bit, 5 exponent bits (bias 15)
// and 10 fraction bits.
type Bits uint16

// ToFloat32 widens h. The conversion is exact.
func ToFloat32(h Bits) float32 {
	neg := h&0x8000 != 0
	exp := int(h>>10) & 0x1f
	frac := uint32(h & 0x3ff)

	var f float32
	switch {
	case exp == 0x1f && frac != 0:
		return math.Float32frombits(uint32(h&0x8000)<<16 | 0x7fc00000 | frac<<13)
	case exp == 0x1f:
		f = float32(math.Inf(1))
	case exp == 0:
		f = float32(math.Ldexp(float64(frac), -24))
	default:
		f = float32(math.Ldexp(float64(frac|0x400), exp-25))
	}
	if neg {
		return -f
	}
	return f
}

// FromFloat32 narrows f, rounding to nearest even. Values beyond the half
// range become infinities and values below its smallest subnormal become
// zeros of the same sign.
func FromFloat32(f float32) Bits {
	b := math.Float32bits(f)
	sign := Bits(b>>16) & 0x8000
	exp := int(b>>23) & 0xff
	frac := b & 0x7fffff

	if exp == 0xff {
		if frac == 0 {
			return sign | 0x7c00
		}
		return sign | 0x7e00 | Bits(frac>>13)
	}

	e := exp - 127 + 15
	if e >= 0x1f {
		return sign | 0x7c00
	}

	var mant uint32
	var shift uint
	if e > 0 {
		mant, shift = frac, 13
	} else {
		if e < -10 {
			return sign
		}
		mant, shift = frac|0x800000, uint(14-e)
		e = 0
	}

	m := mant >> shift
	rem := mant & (1<<shift - 1)
	half := uint32(1) << (shift - 1)
	if rem > half || rem == half && m&1 == 1 {
		m++
	}
	// A carry out of the fraction moves into the exponent, which yields
	// the next binade or infinity.
	return sign | Bits(uint32(e)<<10+m)
}
