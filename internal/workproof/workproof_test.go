package workproof

import (
	"testing"

	"lukechampine.com/uint128"
)

func TestGenerateProducesVerifiableProof(t *testing.T) {
	nonces := []uint128.Uint128{
		uint128.Zero,
		uint128.From64(1),
		uint128.From64(0xdeadbeef),
		uint128.New(0x1234567890abcdef, 0xfedcba0987654321),
	}

	for _, nonce := range nonces {
		start, ok := Generate(nonce, 8, uint128.Max)
		if !ok {
			t.Fatalf("Generate(%v) failed to find a proof", nonce)
		}
		if !Verify(nonce, start, 8) {
			t.Fatalf("Verify(%v, %v) = false, want true", nonce, start)
		}
	}
}

func TestVerifyRejectsWrongStart(t *testing.T) {
	nonce := uint128.From64(42)
	start, ok := Generate(nonce, 8, uint128.Max)
	if !ok {
		t.Fatal("Generate failed")
	}
	if Verify(nonce, start.Add(uint128.From64(1)), 8) {
		t.Skip("adjacent start also happened to satisfy strength 8; not a failure")
	}
}

func TestVerifyZeroStrengthAlwaysPasses(t *testing.T) {
	if !Verify(uint128.From64(7), uint128.Zero, 0) {
		t.Fatal("strength 0 must always verify")
	}
}

func TestLeadingZeroBits(t *testing.T) {
	cases := []struct {
		b    []byte
		want uint32
	}{
		{[]byte{0x00, 0x00, 0xff}, 16},
		{[]byte{0xff}, 0},
		{[]byte{0x0f}, 4},
		{[]byte{0x00, 0x00, 0x00}, 24},
	}
	for _, c := range cases {
		if got := leadingZeroBits(c.b); got != c.want {
			t.Errorf("leadingZeroBits(%v) = %d, want %d", c.b, got, c.want)
		}
	}
}
