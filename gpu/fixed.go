// fixed.go - Fixed-point numeric types for the 3D pipeline

/*
(c) 2024 - 2026 Zoltrix Systems
License: GPLv3 or later
*/

/*
fixed.go - Fx1612 / Fx1220

The GPU's matrix and vertex domain is 20.12 fixed point (Fx1612: 1 sign
bit folded into 20 integer bits, 12 fraction bits, stored as int32); the
rasterizer's interior math runs in a wider 12.20 accumulator (Fx1220,
stored as int64) so edge-walk division and perspective interpolation
don't lose bits across a full screen-space range multiply. Both are named
types over plain integers with arithmetic methods, generalizing the
teacher's scattered inline 12.4/12.12/14.18 shift-and-mask conversions in
video_voodoo.go into one reusable family, since here the fixed-point math
is load-bearing rather than a cosmetic register-boundary conversion.
*/

package gpu

// Fx1612 is a 20.12 fixed-point value: matrices, vertex positions, UVs.
type Fx1612 int32

const fx1612Frac = 12

func NewFx1612(intPart int32) Fx1612 { return Fx1612(intPart << fx1612Frac) }

func Fx1612FromRaw(raw int32) Fx1612 { return Fx1612(raw) }

func (f Fx1612) Raw() int32 { return int32(f) }

func (f Fx1612) Int() int32 { return int32(f) >> fx1612Frac }

func (f Fx1612) Float() float64 { return float64(f) / float64(int32(1)<<fx1612Frac) }

func (f Fx1612) Add(g Fx1612) Fx1612 { return f + g }

func (f Fx1612) Sub(g Fx1612) Fx1612 { return f - g }

// Mul multiplies two 20.12 values via a 64-bit intermediate, matching the
// hardware's exact truncating (not rounding) shift-back.
func (f Fx1612) Mul(g Fx1612) Fx1612 {
	return Fx1612((int64(f) * int64(g)) >> fx1612Frac)
}

// Div performs 20.12 division with a widened numerator, truncating.
func (f Fx1612) Div(g Fx1612) Fx1612 {
	if g == 0 {
		return 0
	}
	return Fx1612((int64(f) << fx1612Frac) / int64(g))
}

// Fx1220 is a 12.20 fixed-point accumulator used by the rasterizer's
// edge-walk and perspective interpolation, where 20 bits of fraction
// avoid precision loss when multiplying a screen-space delta by a
// reciprocal across up to 256 scanlines.
type Fx1220 int64

const fx1220Frac = 20

func NewFx1220(intPart int64) Fx1220 { return Fx1220(intPart << fx1220Frac) }

func Fx1220FromFx1612(f Fx1612) Fx1220 {
	return Fx1220(int64(f)) << (fx1220Frac - fx1612Frac)
}

func (f Fx1220) ToFx1612() Fx1612 {
	return Fx1612(int64(f) >> (fx1220Frac - fx1612Frac))
}

func (f Fx1220) Int() int64 { return int64(f) >> fx1220Frac }

func (f Fx1220) Add(g Fx1220) Fx1220 { return f + g }

func (f Fx1220) Sub(g Fx1220) Fx1220 { return f - g }

func (f Fx1220) Mul(g Fx1220) Fx1220 {
	hi, lo := mul128(int64(f), int64(g))
	return Fx1220(shiftRight128(hi, lo, fx1220Frac))
}

// Div computes f/g at 12.20 precision, widening the numerator by the
// fraction width before dividing so the quotient retains fractional bits.
func (f Fx1220) Div(g Fx1220) Fx1220 {
	if g == 0 {
		if f >= 0 {
			return Fx1220(1<<63 - 1)
		}
		return Fx1220(-1 << 63)
	}
	return Fx1220((int64(f) << fx1220Frac) / int64(g))
}

// mul128 returns the signed 128-bit product of a and b as (hi, lo) with lo
// interpreted unsigned, used so Fx1220.Mul doesn't silently overflow when
// both operands carry a large integer part.
func mul128(a, b int64) (hi, lo int64) {
	const mask = 0xFFFFFFFF
	aLo, aHi := a&mask, a>>32
	bLo, bHi := b&mask, b>>32

	t := aLo * bLo
	w0 := t & mask
	k := t >> 32

	t = aHi*bLo + k
	w1 := t & mask
	w2 := t >> 32

	t = aLo*bHi + w1
	k = t >> 32

	hi = aHi*bHi + w2 + k
	lo = (t << 32) + w0
	return
}

// shiftRight128 arithmetic-shifts the 128-bit (hi, lo) pair right by n
// bits (n < 64) and returns the low 64 bits of the result.
func shiftRight128(hi, lo int64, n uint) int64 {
	if n == 0 {
		return lo
	}
	return (hi << (64 - n)) | int64(uint64(lo)>>n)
}
