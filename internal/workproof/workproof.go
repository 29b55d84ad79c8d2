// Package workproof implements the proof-of-work primitive clients attach
// to every sequenced command: a per-nonce hash-preimage search the server
// can verify in one pass but which costs the client real CPU time to
// produce. Grounded directly on the original source's
// chatproto::workproof module; verify_workproof/gen_workproof carry over
// name-for-name as Verify/Generate.
package workproof

import (
	"crypto/sha1" //nolint:gosec // part of the wire contract, not a security boundary
	"encoding/binary"

	"lukechampine.com/uint128"
)

const loops = 16

// Verify reports whether start is an acceptable proof of work for nonce at
// the given strength (minimum leading zero bits of the final digest).
func Verify(nonce, start uint128.Uint128, strength uint32) bool {
	return leadingZeroBits(hashChain(nonce, start)) >= strength
}

// Generate searches start values in [0, limit) for the smallest one that
// satisfies Verify, returning ok=false if none does.
func Generate(nonce uint128.Uint128, strength uint32, limit uint128.Uint128) (start uint128.Uint128, ok bool) {
	one := uint128.From64(1)
	for s := uint128.Zero; s.Cmp(limit) < 0; s = s.Add(one) {
		if Verify(nonce, s, strength) {
			return s, true
		}
	}
	return uint128.Zero, false
}

// hashChain computes SHA-1 over the little-endian 16-byte encodings of nonce
// then start, and re-digests the 20-byte result 15 more times (16 total
// SHA-1 applications).
func hashChain(nonce, start uint128.Uint128) []byte {
	h := sha1.New() //nolint:gosec
	var buf [16]byte
	putLE128(&buf, nonce)
	h.Write(buf[:])
	putLE128(&buf, start)
	h.Write(buf[:])
	cur := h.Sum(nil)

	for i := 1; i < loops; i++ {
		next := sha1.Sum(cur) //nolint:gosec
		cur = next[:]
	}
	return cur
}

func putLE128(buf *[16]byte, v uint128.Uint128) {
	binary.LittleEndian.PutUint64(buf[0:8], v.Lo)
	binary.LittleEndian.PutUint64(buf[8:16], v.Hi)
}

// leadingZeroBits sums leading_zeros(byte) across bytes from the first,
// stopping at (and counting) the first non-zero byte.
func leadingZeroBits(b []byte) uint32 {
	var zeros uint32
	for _, by := range b {
		zeros += leadingZerosByte(by)
		if by != 0 {
			break
		}
	}
	return zeros
}

func leadingZerosByte(b byte) uint32 {
	if b == 0 {
		return 8
	}
	var n uint32
	for mask := byte(0x80); mask != 0 && b&mask == 0; mask >>= 1 {
		n++
	}
	return n
}
