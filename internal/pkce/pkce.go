// Package pkce builds RFC 7636 code verifiers, code challenges and state tokens.
//
// Verifiers and states are drawn from the unreserved alphabet [A-Za-z0-9-._~].
// Randomness comes from crypto/rand unless the caller supplies another reader.
// A non-cryptographic fallback exists only behind AllowWeak and is always reported.
package pkce

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	mrand "math/rand/v2"
	"time"

	"github.com/MGallo-Code/pawlink/internal/b64url"
	"github.com/MGallo-Code/pawlink/internal/digest"
)

// Method is the only code_challenge_method this package produces.
const Method = "S256"

const (
	// VerifierLength is the generated code_verifier length (RFC 7636 allows 43-128).
	VerifierLength = 64
	// StateLength is the generated anti-CSRF state length.
	StateLength = 43
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"

// maxUnbiased is the largest multiple of len(alphabet) that fits in a byte.
// Bytes at or above it are rejected so every character is equally likely.
const maxUnbiased = 256 - 256%len(alphabet)

// ErrWeakRandomSource is returned when the secure reader fails and the weak fallback is disabled.
var ErrWeakRandomSource = errors.New("pkce: secure random source unavailable")

// Generator produces verifiers, states and challenges.
// The zero value uses crypto/rand and the standard-library SHA-256.
type Generator struct {
	// Reader is the secure random source. Nil means crypto/rand.Reader.
	Reader io.Reader
	// AllowWeak permits a math/rand fallback when Reader fails. Results are flagged weak.
	AllowWeak bool
	// Digest computes the challenge hash. Nil means digest.Native.
	Digest digest.Func
}

// Pair is a verifier and its derived S256 challenge.
type Pair struct {
	Verifier  string
	Challenge string
	// Weak is true when the verifier came from the non-cryptographic fallback.
	Weak bool
}

// NewPair generates a fresh verifier and its challenge.
func (g *Generator) NewPair() (Pair, error) {
	v, weak, err := g.RandomString(VerifierLength)
	if err != nil {
		return Pair{}, fmt.Errorf("generating code verifier: %w", err)
	}
	return Pair{Verifier: v, Challenge: g.Challenge(v), Weak: weak}, nil
}

// NewState generates an anti-CSRF state token.
func (g *Generator) NewState() (string, bool, error) {
	s, weak, err := g.RandomString(StateLength)
	if err != nil {
		return "", false, fmt.Errorf("generating state: %w", err)
	}
	return s, weak, nil
}

// Challenge derives base64url(sha256(verifier)). Pure: same verifier, same challenge.
func (g *Generator) Challenge(verifier string) string {
	sum := g.digest()([]byte(verifier))
	return b64url.Encode(sum[:])
}

// RandomString returns n characters from the unreserved alphabet.
// weak reports whether the fallback generator produced them.
func (g *Generator) RandomString(n int) (s string, weak bool, err error) {
	out := make([]byte, 0, n)
	buf := make([]byte, n+n/2)
	src := g.reader()
	for len(out) < n {
		if _, err := io.ReadFull(src, buf); err != nil {
			if !g.AllowWeak {
				return "", false, fmt.Errorf("%w: %v", ErrWeakRandomSource, err)
			}
			return weakString(n), true, nil
		}
		for _, b := range buf {
			if int(b) >= maxUnbiased {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), false, nil
}

func (g *Generator) reader() io.Reader {
	if g.Reader != nil {
		return g.Reader
	}
	return rand.Reader
}

func (g *Generator) digest() digest.Func {
	if g.Digest != nil {
		return g.Digest
	}
	return digest.Native
}

// weakString is the non-cryptographic fallback. Output is predictable from the seed;
// only reachable with AllowWeak set.
func weakString(n int) string {
	var seed [32]byte
	binary.LittleEndian.PutUint64(seed[:], uint64(time.Now().UnixNano()))
	r := mrand.New(mrand.NewChaCha8(seed))
	out := make([]byte, n)
	for i := range out {
		out[i] = alphabet[r.IntN(len(alphabet))]
	}
	return string(out)
}
