// provider.go -- Provider descriptions and the normalized sign-in profile.
package oauth

import (
	"strings"
	"time"
)

// Profile is the provider-agnostic result of a sign-in (SocialAuthProfile).
// ExternalID is the provider's immutable user id and the key for account linking.
// Email and AvatarURL are nil when the provider does not supply them.
type Profile struct {
	Provider   string  `json:"provider"`
	ExternalID string  `json:"external_id"`
	Name       string  `json:"name"`
	Email      *string `json:"email"`
	AvatarURL  *string `json:"avatar_url"`
}

// TokenResponse holds what the token endpoint returned. Used once to fetch the profile, then dropped.
type TokenResponse struct {
	AccessToken string
	TokenType   string
	IDToken     string // LINE only
	Expiry      time.Time
}

// NormalizeFunc turns a raw profile response into a Profile.
// Provider quirks (fallbacks, envelopes) live here and nowhere else.
type NormalizeFunc func(tok *TokenResponse, body []byte) (*Profile, error)

// Provider describes one OAuth2 PKCE identity provider.
type Provider struct {
	// Name is the short identifier used in routes, logs and the users table ("line", "x").
	Name         string
	AuthorizeURL string
	TokenURL     string
	ProfileURL   string
	Scopes       []string
	Normalize    NormalizeFunc
}

// Scope returns the space-delimited scope parameter.
func (p Provider) Scope() string { return strings.Join(p.Scopes, " ") }

// Client is the app's registration with a provider.
type Client struct {
	ClientID string
	// ClientSecret is optional; sent on token exchange only when set.
	ClientSecret string
	RedirectURI  string
}

// strOrNil converts an empty string to nil; non-empty strings are returned as a pointer.
func strOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// firstNonEmpty returns the first non-empty value, or "" if all are empty.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
