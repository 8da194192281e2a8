// Package b64url encodes and decodes the URL-safe, unpadded Base64 alphabet
// used by PKCE challenges and compact JWT segments.
package b64url

import (
	"encoding/base64"
	"errors"
	"strings"
	"unicode/utf8"
)

// ErrInvalidLength is returned for input whose length can never be valid Base64 (len%4 == 1).
var ErrInvalidLength = errors.New("b64url: invalid input length")

// Encode returns the URL-safe Base64 form of b with '=' padding stripped.
func Encode(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// Decode reverses Encode. Padding is re-inserted before decoding, so both
// padded and unpadded input are accepted.
func Decode(s string) ([]byte, error) {
	s = strings.TrimRight(s, "=")
	switch len(s) % 4 {
	case 1:
		return nil, ErrInvalidLength
	case 2:
		s += "=="
	case 3:
		s += "="
	}
	return base64.URLEncoding.DecodeString(s)
}

// DecodeText decodes s and returns the bytes as text.
// Invalid UTF-8 falls back to one rune per byte so malformed JWT payloads never panic callers.
func DecodeText(s string) (string, error) {
	b, err := Decode(s)
	if err != nil {
		return "", err
	}
	if utf8.Valid(b) {
		return string(b), nil
	}
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes), nil
}
