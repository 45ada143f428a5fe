package gf128

import (
	"bytes"
	"testing"
)

func TestDoubleNoOverflow(t *testing.T) {
	e := One()
	Double(&e)
	want := Alpha()
	if !bytes.Equal(e[:], want[:]) {
		t.Errorf("Double(1) = %x, want %x", e[:], want[:])
	}
}

func TestDoubleOverflow(t *testing.T) {
	// The x^127 coefficient set and nothing else: doubling must wrap
	// through the reduction polynomial, leaving 0x87 in byte 0.
	var e Element
	e[15] = 0x80
	Double(&e)
	var want Element
	want[0] = feedback
	if !bytes.Equal(e[:], want[:]) {
		t.Errorf("Double(x^127) = %x, want %x", e[:], want[:])
	}
}

func TestDoubleCarryChain(t *testing.T) {
	// A bit at the top of byte 0 must carry into byte 1.
	e := Element{0x80}
	Double(&e)
	want := Element{0x00, 0x01}
	if !bytes.Equal(e[:], want[:]) {
		t.Errorf("Double(0x80) = %x, want %x", e[:], want[:])
	}
}

func TestMulIdentity(t *testing.T) {
	a := Element{0xde, 0xad, 0xbe, 0xef, 0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef, 0xfe, 0xdc, 0xba, 0x98}
	got := a
	one := One()
	Mul(&got, &one)
	if !bytes.Equal(got[:], a[:]) {
		t.Errorf("a*1 = %x, want %x", got[:], a[:])
	}
}

func TestMulByAlphaMatchesDouble(t *testing.T) {
	a := Element{0x31, 0x41, 0x59, 0x26, 0x53, 0x58, 0x97, 0x93, 0x23, 0x84, 0x62, 0x64, 0x33, 0x83, 0x27, 0x95}

	byMul := a
	alpha := Alpha()
	Mul(&byMul, &alpha)

	byDouble := a
	Double(&byDouble)

	if !bytes.Equal(byMul[:], byDouble[:]) {
		t.Errorf("a*alpha = %x, Double(a) = %x", byMul[:], byDouble[:])
	}
}

func TestMulCommutes(t *testing.T) {
	a := Element{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10}
	b := Element{0xf0, 0xe1, 0xd2, 0xc3, 0xb4, 0xa5, 0x96, 0x87, 0x78, 0x69, 0x5a, 0x4b, 0x3c, 0x2d, 0x1e, 0x0f}

	ab := a
	Mul(&ab, &b)

	ba := b
	Mul(&ba, &a)

	if !bytes.Equal(ab[:], ba[:]) {
		t.Errorf("a*b = %x, b*a = %x", ab[:], ba[:])
	}
}

func TestMulSelfAlias(t *testing.T) {
	// Mul must tolerate b aliasing a (used for squaring in PowAlpha).
	a := Element{0x13, 0x57, 0x9b, 0xdf, 0x02, 0x46, 0x8a, 0xce, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88}
	b := a

	squared := a
	Mul(&squared, &squared)

	viaCopy := a
	Mul(&viaCopy, &b)

	if !bytes.Equal(squared[:], viaCopy[:]) {
		t.Errorf("a*a aliased = %x, via copy = %x", squared[:], viaCopy[:])
	}
}

func TestPowAlphaAgainstIteratedDouble(t *testing.T) {
	cases := []uint64{0, 1, 10, 100, 2047, 2048, 2049, 5000}

	for _, n := range cases {
		var pow Element
		PowAlpha(&pow, n)

		iterated := One()
		for i := uint64(0); i < n; i++ {
			Double(&iterated)
		}

		if !bytes.Equal(pow[:], iterated[:]) {
			t.Errorf("n=%d: PowAlpha = %x, iterated = %x", n, pow[:], iterated[:])
		}
	}
}

func TestMulAlphaPowAgainstIteratedDouble(t *testing.T) {
	start := Element{0x27, 0x18, 0x28, 0x18, 0x28, 0x45, 0x90, 0x45, 0x23, 0x53, 0x60, 0x28, 0x74, 0x71, 0x35, 0x26}
	cases := []uint64{0, 1, 10, 100, 2047, 2048, 2049, 5000}

	for _, n := range cases {
		fast := start
		MulAlphaPow(&fast, n)

		slow := start
		for i := uint64(0); i < n; i++ {
			Double(&slow)
		}

		if !bytes.Equal(fast[:], slow[:]) {
			t.Errorf("n=%d: MulAlphaPow = %x, iterated = %x", n, fast[:], slow[:])
		}
	}
}

func TestWipe(t *testing.T) {
	e := Element{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	Wipe(&e)
	var zero Element
	if !bytes.Equal(e[:], zero[:]) {
		t.Errorf("Wipe left %x", e[:])
	}
}
