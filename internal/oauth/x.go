// x.go -- X (Twitter) OAuth 2.0 provider.
package oauth

import (
	"encoding/json"
	"fmt"
)

// X returns the X provider description.
// X issues no ID token and its /users/me response carries no email, so Email is always nil.
func X() Provider {
	return Provider{
		Name:         "x",
		AuthorizeURL: "https://twitter.com/i/oauth2/authorize",
		TokenURL:     "https://api.twitter.com/2/oauth2/token",
		ProfileURL:   "https://api.twitter.com/2/users/me?user.fields=profile_image_url",
		Scopes:       []string{"tweet.read", "users.read"},
		Normalize:    normalizeX,
	}
}

func normalizeX(_ *TokenResponse, body []byte) (*Profile, error) {
	var p struct {
		Data *struct {
			ID              string `json:"id"`
			Name            string `json:"name"`
			Username        string `json:"username"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decoding x profile: %w", err)
	}
	// No JWT fallback exists for X: data.id is the only identity source.
	if p.Data == nil || p.Data.ID == "" {
		return nil, ErrMissingUserID
	}

	return &Profile{
		ExternalID: p.Data.ID,
		Name:       firstNonEmpty(p.Data.Name, p.Data.Username, "X User"),
		AvatarURL:  strOrNil(p.Data.ProfileImageURL),
	}, nil
}
