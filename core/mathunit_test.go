package core

import "testing"

func TestDivIntMinByNegOne(t *testing.T) {
	m := NewMathUnit()
	m.WriteDIVCNT(0)
	m.WriteNumer(0x80000000)
	m.WriteDenom(0xFFFFFFFF)

	if got := m.DivResult(); got != 0xFFFFFFFF80000000 {
		t.Fatalf("DivResult = %#x, want 0xffffffff80000000", got)
	}
	if got := m.DivRemainder(); got != 0 {
		t.Fatalf("DivRemainder = %#x, want 0", got)
	}
}

func TestDivByZero(t *testing.T) {
	m := NewMathUnit()
	m.WriteDIVCNT(0)
	m.WriteNumer(7)
	m.WriteDenom(0)

	if got := m.DivResult(); got != 0x00000000FFFFFFFF {
		t.Fatalf("DivResult = %#x, want 0xffffffff", got)
	}
	if got := m.DivRemainder(); got != 7 {
		t.Fatalf("DivRemainder = %d, want 7", got)
	}
	if !m.DivByZero() {
		t.Fatal("DivByZero() = false, want true")
	}
}

func TestDivByZeroNegativeNumerator(t *testing.T) {
	m := NewMathUnit()
	m.WriteDIVCNT(0)
	m.WriteNumer(0xFFFFFFF9) // -7 as a 32-bit two's-complement pattern
	m.WriteDenom(0)

	if got := m.DivResult(); got != 1 {
		t.Fatalf("DivResult = %#x, want 1", got)
	}
}

func TestSqrtRoundsTowardZero(t *testing.T) {
	m := NewMathUnit()
	m.WriteSQRTCNT(false)
	m.WriteSqrtParam(10)
	if got := m.SqrtResult(); got != 3 {
		t.Fatalf("sqrt(10) = %d, want 3", got)
	}
	m.WriteSqrtParam(16)
	if got := m.SqrtResult(); got != 4 {
		t.Fatalf("sqrt(16) = %d, want 4", got)
	}
}

func TestSqrt64Bit(t *testing.T) {
	m := NewMathUnit()
	m.WriteSQRTCNT(true)
	m.WriteSqrtParam(1 << 40)
	want := isqrt64(1 << 40)
	if got := m.SqrtResult(); got != want {
		t.Fatalf("sqrt(2^40) = %d, want %d", got, want)
	}
}
