// normalize_test.go -- LINE and X profile normalization rules.
package oauth

import (
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestNormalizeLINE(t *testing.T) {
	t.Run("email comes from id token", func(t *testing.T) {
		tok := &TokenResponse{IDToken: signedIDToken(t, jwt.MapClaims{"sub": "U1", "email": "a@b.com"})}
		p, err := normalizeLINE(tok, []byte(`{"userId":"U1","displayName":"Pochi","pictureUrl":"https://profile.line-scdn.net/p"}`))
		if err != nil {
			t.Fatalf("normalizeLINE: %v", err)
		}
		if p.Email == nil || *p.Email != "a@b.com" {
			t.Errorf("email: expected a@b.com, got %v", p.Email)
		}
		if p.ExternalID != "U1" || p.Name != "Pochi" {
			t.Errorf("unexpected profile: %+v", p)
		}
		if p.AvatarURL == nil || *p.AvatarURL != "https://profile.line-scdn.net/p" {
			t.Errorf("avatar: got %v", p.AvatarURL)
		}
	})

	t.Run("no id token means nil email", func(t *testing.T) {
		p, err := normalizeLINE(&TokenResponse{}, []byte(`{"userId":"U1","displayName":"Pochi"}`))
		if err != nil {
			t.Fatalf("normalizeLINE: %v", err)
		}
		if p.Email != nil {
			t.Errorf("email: expected nil, got %q", *p.Email)
		}
		if p.AvatarURL != nil {
			t.Errorf("avatar: expected nil, got %q", *p.AvatarURL)
		}
	})

	t.Run("id token without email means nil email", func(t *testing.T) {
		tok := &TokenResponse{IDToken: signedIDToken(t, jwt.MapClaims{"sub": "U1"})}
		p, err := normalizeLINE(tok, []byte(`{"userId":"U1"}`))
		if err != nil {
			t.Fatalf("normalizeLINE: %v", err)
		}
		if p.Email != nil {
			t.Errorf("email: expected nil, got %q", *p.Email)
		}
	})

	t.Run("user id falls back to id token sub", func(t *testing.T) {
		tok := &TokenResponse{IDToken: signedIDToken(t, jwt.MapClaims{"sub": "Usub", "name": "Token Name"})}
		p, err := normalizeLINE(tok, []byte(`{}`))
		if err != nil {
			t.Fatalf("normalizeLINE: %v", err)
		}
		if p.ExternalID != "Usub" {
			t.Errorf("external id: expected Usub, got %q", p.ExternalID)
		}
		if p.Name != "Token Name" {
			t.Errorf("name: expected id-token name, got %q", p.Name)
		}
	})

	t.Run("profile user id wins over sub", func(t *testing.T) {
		tok := &TokenResponse{IDToken: signedIDToken(t, jwt.MapClaims{"sub": "Usub"})}
		p, err := normalizeLINE(tok, []byte(`{"userId":"Uprofile"}`))
		if err != nil {
			t.Fatalf("normalizeLINE: %v", err)
		}
		if p.ExternalID != "Uprofile" {
			t.Errorf("external id: expected Uprofile, got %q", p.ExternalID)
		}
	})

	t.Run("name defaults to LINE User", func(t *testing.T) {
		p, err := normalizeLINE(&TokenResponse{}, []byte(`{"userId":"U1"}`))
		if err != nil {
			t.Fatalf("normalizeLINE: %v", err)
		}
		if p.Name != "LINE User" {
			t.Errorf("name: expected %q, got %q", "LINE User", p.Name)
		}
	})

	t.Run("no identity anywhere", func(t *testing.T) {
		_, err := normalizeLINE(&TokenResponse{IDToken: "garbage"}, []byte(`{"displayName":"x"}`))
		if !errors.Is(err, ErrMissingUserID) {
			t.Errorf("expected ErrMissingUserID, got %v", err)
		}
	})

	t.Run("malformed profile json", func(t *testing.T) {
		if _, err := normalizeLINE(&TokenResponse{}, []byte(`<html>`)); err == nil {
			t.Error("expected decode error, got nil")
		}
	})
}

func TestNormalizeX(t *testing.T) {
	t.Run("full profile", func(t *testing.T) {
		p, err := normalizeX(nil, []byte(`{"data":{"id":"1234567890","name":"Shiba Club","username":"shibaclub","profile_image_url":"https://pbs.twimg.com/p.jpg"}}`))
		if err != nil {
			t.Fatalf("normalizeX: %v", err)
		}
		if p.ExternalID != "1234567890" || p.Name != "Shiba Club" {
			t.Errorf("unexpected profile: %+v", p)
		}
		if p.Email != nil {
			t.Errorf("email: expected nil, got %q", *p.Email)
		}
		if p.AvatarURL == nil || *p.AvatarURL != "https://pbs.twimg.com/p.jpg" {
			t.Errorf("avatar: got %v", p.AvatarURL)
		}
	})

	t.Run("name falls back to username then X User", func(t *testing.T) {
		p, err := normalizeX(nil, []byte(`{"data":{"id":"1","username":"shibaclub"}}`))
		if err != nil {
			t.Fatalf("normalizeX: %v", err)
		}
		if p.Name != "shibaclub" {
			t.Errorf("name: expected username, got %q", p.Name)
		}

		p, err = normalizeX(nil, []byte(`{"data":{"id":"1"}}`))
		if err != nil {
			t.Fatalf("normalizeX: %v", err)
		}
		if p.Name != "X User" {
			t.Errorf("name: expected %q, got %q", "X User", p.Name)
		}
	})

	for _, body := range []string{`{}`, `{"data":null}`, `{"data":{"name":"n"}}`, `{"data":{"id":""}}`} {
		t.Run("missing id "+body, func(t *testing.T) {
			_, err := normalizeX(nil, []byte(body))
			if !errors.Is(err, ErrMissingUserID) {
				t.Errorf("expected ErrMissingUserID, got %v", err)
			}
		})
	}
}
