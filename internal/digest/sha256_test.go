package digest

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
)

func TestPortable_KnownVectors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"abc", "abc", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{"two blocks", "abcdbcdecdefdefgefghfghighijhijkijkljklmklmnlmnomnopnopq", "248d6a61d20638b8e5c026930c3e6039a33ce45964ff2167f6ecedd419db06c1"},
		// RFC 7636 appendix B verifier.
		{"rfc7636 verifier", "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk", "13d31e961a1ad8ec2f16b10c4c982e0876a878ad6df144566ee1894acb70f9c3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Portable([]byte(tt.in))
			if hex.EncodeToString(got[:]) != tt.want {
				t.Errorf("expected %s, got %x", tt.want, got)
			}
		})
	}
}

// TestPortable_MatchesNative covers every padding boundary around one and two blocks.
func TestPortable_MatchesNative(t *testing.T) {
	for n := 0; n <= 200; n++ {
		msg := bytes.Repeat([]byte{byte(n)}, n)
		got := Portable(msg)
		want := sha256.Sum256(msg)
		if got != want {
			t.Fatalf("length %d: expected %x, got %x", n, want, got)
		}
	}
}

func TestPortable_LargeInput(t *testing.T) {
	msg := []byte(strings.Repeat("a", 1_000_000))
	got := Portable(msg)
	if hex.EncodeToString(got[:]) != "cdc76e5c9914fb9281a1c7e284d73e67f1809a48a497200e046d39ccc7112cd0" {
		t.Errorf("million-a vector mismatch, got %x", got)
	}
}

func TestPortable_DoesNotMutateInput(t *testing.T) {
	msg := []byte("pawlink")
	orig := append([]byte(nil), msg...)
	Portable(msg)
	if !bytes.Equal(msg, orig) {
		t.Errorf("input mutated: expected %q, got %q", orig, msg)
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"", "native", "portable"} {
		fn, err := ByName(name)
		if err != nil {
			t.Fatalf("ByName(%q): %v", name, err)
		}
		got := fn([]byte("abc"))
		if got != sha256.Sum256([]byte("abc")) {
			t.Errorf("ByName(%q) produced wrong digest", name)
		}
	}

	if _, err := ByName("md5"); err == nil {
		t.Error("expected error for unknown digest, got nil")
	}
}
