// mathunit.go - Fixed-function divider and square-root unit

/*
(c) 2024 - 2026 Zoltrix Systems
License: GPLv3 or later
*/

/*
mathunit.go - DIV/SQRT coprocessor

A write to any of DIVCNT/DIV_NUMER/DIV_DENOM recomputes the result
immediately (there is no pipeline latency modeled, matching the spec's
treatment of it as a combinational unit from the emulator's point of
view). The divide-by-zero and INT_MIN/-1 quirks below are transcribed
directly from the edge cases §6 documents rather than derived from a
general rule, because real hardware's behavior there doesn't follow from
ordinary two's-complement division - it's a documented hardware quirk,
not a bug in this code.
*/

package core

type DivMode uint8

const (
	Div32_32 DivMode = iota
	Div64_32
	Div64_64
)

type MathUnit struct {
	divMode          DivMode
	numer, denom     int64
	divResult, divRem int64
	divByZero        bool

	sqrtMode64 bool
	sqrtParam  uint64
	sqrtResult uint32
}

func NewMathUnit() *MathUnit { return &MathUnit{} }

func (m *MathUnit) Reset() { *m = MathUnit{} }

func (m *MathUnit) WriteDIVCNT(mode uint16) {
	m.divMode = DivMode(mode & 0x3 % 3)
	m.recompute()
}

func (m *MathUnit) WriteNumer(v uint64) {
	m.numer = int64(v)
	m.recompute()
}

func (m *MathUnit) WriteDenom(v uint64) {
	m.denom = int64(v)
	m.recompute()
}

func (m *MathUnit) DivResult() uint64    { return uint64(m.divResult) }
func (m *MathUnit) DivRemainder() uint64 { return uint64(m.divRem) }
func (m *MathUnit) DivByZero() bool      { return m.divByZero }

func (m *MathUnit) recompute() {
	numer := m.numer
	denom := m.denom
	if m.divMode == Div32_32 {
		numer = int64(int32(numer))
		denom = int64(int32(denom))
	} else if m.divMode == Div64_32 {
		denom = int64(int32(denom))
	}

	if denom == 0 {
		m.divByZero = true
		m.divRem = numer
		if numer < 0 {
			m.divResult = 1
		} else {
			m.divResult = -1
			if m.divMode == Div32_32 {
				m.divResult &= 0xFFFFFFFF
			}
		}
		return
	}
	m.divByZero = false

	if numer == minInt64AtWidth(m.divMode) && denom == -1 {
		m.divResult = numer
		m.divRem = 0
		return
	}

	m.divResult = numer / denom
	m.divRem = numer % denom
}

func minInt64AtWidth(mode DivMode) int64 {
	if mode == Div32_32 {
		return int64(int32(-1 << 31))
	}
	return -1 << 63
}

func (m *MathUnit) WriteSQRTCNT(mode64 bool) {
	m.sqrtMode64 = mode64
	m.recomputeSqrt()
}

func (m *MathUnit) WriteSqrtParam(v uint64) {
	m.sqrtParam = v
	m.recomputeSqrt()
}

func (m *MathUnit) SqrtResult() uint32 { return m.sqrtResult }

// recomputeSqrt performs an integer square root rounding toward zero, as
// §6 specifies, via bit-by-bit restoring square root rather than
// math.Sqrt to stay exact for 64-bit operands.
func (m *MathUnit) recomputeSqrt() {
	param := m.sqrtParam
	if !m.sqrtMode64 {
		param &= 0xFFFFFFFF
	}
	m.sqrtResult = isqrt64(param)
}

func isqrt64(v uint64) uint32 {
	if v == 0 {
		return 0
	}
	var result uint64
	bit := uint64(1) << 62
	for bit > v {
		bit >>= 2
	}
	n := v
	for bit != 0 {
		if n >= result+bit {
			n -= result + bit
			result = (result >> 1) + bit
		} else {
			result >>= 1
		}
		bit >>= 2
	}
	return uint32(result)
}
