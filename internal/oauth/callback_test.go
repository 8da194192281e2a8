// callback_test.go -- unit tests for ParseCallback ordering and state validation.
package oauth

import (
	"errors"
	"testing"
)

func TestParseCallback(t *testing.T) {
	const state = "expected-state"

	t.Run("matching state with code succeeds", func(t *testing.T) {
		res, err := ParseCallback("pawlink://auth/callback?code=abc123&state="+state, state)
		if err != nil {
			t.Fatalf("ParseCallback: %v", err)
		}
		if res.Code != "abc123" {
			t.Errorf("code: expected %q, got %q", "abc123", res.Code)
		}
	})

	t.Run("error takes precedence over state mismatch", func(t *testing.T) {
		_, err := ParseCallback("https://app.test/auth/callback?error=access_denied&error_description=user+denied", state)
		var pe *ProviderError
		if !errors.As(err, &pe) {
			t.Fatalf("expected *ProviderError, got %v", err)
		}
		if pe.Code != "access_denied" || pe.Description != "user denied" {
			t.Errorf("unexpected provider error fields: %+v", pe)
		}
		if errors.Is(err, ErrStateMismatch) {
			t.Error("provider error must not be reported as state mismatch")
		}
	})

	t.Run("error without description", func(t *testing.T) {
		_, err := ParseCallback("https://app.test/auth/callback?error=server_error&state="+state, state)
		var pe *ProviderError
		if !errors.As(err, &pe) {
			t.Fatalf("expected *ProviderError, got %v", err)
		}
		if pe.Error() != "provider returned error: server_error" {
			t.Errorf("unexpected message %q", pe.Error())
		}
	})

	mismatches := []struct {
		name     string
		url      string
		expected string
	}{
		{"different state", "https://app.test/auth/callback?code=c&state=other", state},
		{"missing state", "https://app.test/auth/callback?code=c", state},
		{"empty actual state", "https://app.test/auth/callback?code=c&state=", state},
		{"empty expected state", "https://app.test/auth/callback?code=c&state=", ""},
		{"empty expected with present actual", "https://app.test/auth/callback?code=c&state=x", ""},
		{"prefix of expected", "https://app.test/auth/callback?code=c&state=expected", state},
	}
	for _, tt := range mismatches {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCallback(tt.url, tt.expected)
			if !errors.Is(err, ErrStateMismatch) {
				t.Errorf("expected ErrStateMismatch, got %v", err)
			}
		})
	}

	t.Run("missing code", func(t *testing.T) {
		_, err := ParseCallback("https://app.test/auth/callback?state="+state, state)
		if !errors.Is(err, ErrMissingCode) {
			t.Errorf("expected ErrMissingCode, got %v", err)
		}
	})

	t.Run("unparseable url", func(t *testing.T) {
		_, err := ParseCallback("://bad url\x7f", state)
		if !errors.Is(err, ErrInvalidCallback) {
			t.Errorf("expected ErrInvalidCallback, got %v", err)
		}
	})
}
