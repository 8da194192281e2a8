// line.go -- LINE Login v2.1 provider.
package oauth

import (
	"encoding/json"
	"fmt"
)

// LINE returns the LINE Login provider description.
// The profile endpoint has no email; it is read from the ID token when present.
func LINE() Provider {
	return Provider{
		Name:         "line",
		AuthorizeURL: "https://access.line.me/oauth2/v2.1/authorize",
		TokenURL:     "https://api.line.me/oauth2/v2.1/token",
		ProfileURL:   "https://api.line.me/v2/profile",
		Scopes:       []string{"profile", "openid", "email"},
		Normalize:    normalizeLINE,
	}
}

func normalizeLINE(tok *TokenResponse, body []byte) (*Profile, error) {
	var p struct {
		UserID      string `json:"userId"`
		DisplayName string `json:"displayName"`
		PictureURL  string `json:"pictureUrl"`
	}
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decoding line profile: %w", err)
	}

	claims := DecodeUntrustedClaims(tok.IDToken)
	if claims == nil {
		claims = &UntrustedClaims{}
	}

	id := firstNonEmpty(p.UserID, claims.Sub)
	if id == "" {
		return nil, ErrMissingUserID
	}

	return &Profile{
		ExternalID: id,
		Name:       firstNonEmpty(p.DisplayName, claims.Name, "LINE User"),
		Email:      strOrNil(claims.Email),
		AvatarURL:  strOrNil(p.PictureURL),
	}, nil
}
