// Package digest computes SHA-256 digests for PKCE code challenges.
//
// sha256.go -- Portable FIPS 180-4 engine plus the crypto/sha256 binding.
// Portable exists for targets without a platform digest; Native is the default.
// Both satisfy Func so callers can swap them without other changes.
package digest

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/bits"
)

// Size is the length of a SHA-256 digest in bytes.
const Size = 32

// Func computes a 32-byte SHA-256 digest. Implementations are pure and safe for concurrent use.
type Func func(msg []byte) [Size]byte

// initial hash values H(0), FIPS 180-4 section 5.3.3.
var iv = [8]uint32{
	0x6a09e667, 0xbb67ae85, 0x3c6ef372, 0xa54ff53a,
	0x510e527f, 0x9b05688c, 0x1f83d9ab, 0x5be0cd19,
}

// round constants K, FIPS 180-4 section 4.2.2.
var k = [64]uint32{
	0x428a2f98, 0x71374491, 0xb5c0fbcf, 0xe9b5dba5, 0x3956c25b, 0x59f111f1, 0x923f82a4, 0xab1c5ed5,
	0xd807aa98, 0x12835b01, 0x243185be, 0x550c7dc3, 0x72be5d74, 0x80deb1fe, 0x9bdc06a7, 0xc19bf174,
	0xe49b69c1, 0xefbe4786, 0x0fc19dc6, 0x240ca1cc, 0x2de92c6f, 0x4a7484aa, 0x5cb0a9dc, 0x76f988da,
	0x983e5152, 0xa831c66d, 0xb00327c8, 0xbf597fc7, 0xc6e00bf3, 0xd5a79147, 0x06ca6351, 0x14292967,
	0x27b70a85, 0x2e1b2138, 0x4d2c6dfc, 0x53380d13, 0x650a7354, 0x766a0abb, 0x81c2c92e, 0x92722c85,
	0xa2bfe8a1, 0xa81a664b, 0xc24b8b70, 0xc76c51a3, 0xd192e819, 0xd6990624, 0xf40e3585, 0x106aa070,
	0x19a4c116, 0x1e376c08, 0x2748774c, 0x34b0bcb5, 0x391c0cb3, 0x4ed8aa4a, 0x5b9cca4f, 0x682e6ff3,
	0x748f82ee, 0x78a5636f, 0x84c87814, 0x8cc70208, 0x90befffa, 0xa4506ceb, 0xbef9a3f7, 0xc67178f2,
}

// Native computes SHA-256 with the standard library.
func Native(msg []byte) [Size]byte {
	return sha256.Sum256(msg)
}

// Portable computes SHA-256 without any platform digest API.
// All register arithmetic is uint32 and wraps modulo 2^32.
func Portable(msg []byte) [Size]byte {
	padded := pad(msg)
	h := iv

	var w [64]uint32
	for off := 0; off < len(padded); off += 64 {
		block := padded[off : off+64]
		for t := 0; t < 16; t++ {
			w[t] = binary.BigEndian.Uint32(block[t*4:])
		}
		for t := 16; t < 64; t++ {
			w[t] = smallSigma1(w[t-2]) + w[t-7] + smallSigma0(w[t-15]) + w[t-16]
		}

		a, b, c, d, e, f, g, hh := h[0], h[1], h[2], h[3], h[4], h[5], h[6], h[7]
		for t := 0; t < 64; t++ {
			t1 := hh + bigSigma1(e) + ch(e, f, g) + k[t] + w[t]
			t2 := bigSigma0(a) + maj(a, b, c)
			hh = g
			g = f
			f = e
			e = d + t1
			d = c
			c = b
			b = a
			a = t1 + t2
		}

		h[0] += a
		h[1] += b
		h[2] += c
		h[3] += d
		h[4] += e
		h[5] += f
		h[6] += g
		h[7] += hh
	}

	var out [Size]byte
	for i, v := range h {
		binary.BigEndian.PutUint32(out[i*4:], v)
	}
	return out
}

// pad appends 0x80, zero fill, and the message bit length so the result is a multiple of 64 bytes.
// The length is written as two 32-bit big-endian words (high, low).
func pad(msg []byte) []byte {
	n := len(msg)
	total := ((n+8)/64 + 1) * 64
	out := make([]byte, total)
	copy(out, msg)
	out[n] = 0x80

	bitLen := uint64(n) * 8
	binary.BigEndian.PutUint32(out[total-8:], uint32(bitLen>>32))
	binary.BigEndian.PutUint32(out[total-4:], uint32(bitLen))
	return out
}

func ch(x, y, z uint32) uint32  { return (x & y) ^ (^x & z) }
func maj(x, y, z uint32) uint32 { return (x & y) ^ (x & z) ^ (y & z) }

func bigSigma0(x uint32) uint32 {
	return bits.RotateLeft32(x, -2) ^ bits.RotateLeft32(x, -13) ^ bits.RotateLeft32(x, -22)
}

func bigSigma1(x uint32) uint32 {
	return bits.RotateLeft32(x, -6) ^ bits.RotateLeft32(x, -11) ^ bits.RotateLeft32(x, -25)
}

func smallSigma0(x uint32) uint32 {
	return bits.RotateLeft32(x, -7) ^ bits.RotateLeft32(x, -18) ^ (x >> 3)
}

func smallSigma1(x uint32) uint32 {
	return bits.RotateLeft32(x, -17) ^ bits.RotateLeft32(x, -19) ^ (x >> 10)
}

// ByName returns the digest implementation registered under name ("native" or "portable").
// Empty name selects Native.
func ByName(name string) (Func, error) {
	switch name {
	case "", "native":
		return Native, nil
	case "portable":
		return Portable, nil
	default:
		return nil, fmt.Errorf("unknown digest %q", name)
	}
}
