// claims.go -- Unverified ID-token payload access.
package oauth

import (
	"encoding/json"
	"strings"

	"github.com/MGallo-Code/pawlink/internal/b64url"
	"github.com/golang-jwt/jwt/v5"
)

// UntrustedClaims are identity claims read from a JWT payload WITHOUT signature verification.
// Use for enrichment only (display name, email). The authenticated identity is the
// profile endpoint's user id.
type UntrustedClaims struct {
	Sub   string
	Name  string
	Email string
}

// DecodeUntrustedClaims reads sub, name and email from the payload segment of a compact JWT.
// Returns nil for anything it cannot read; a missing or malformed token is not an error here.
func DecodeUntrustedClaims(token string) *UntrustedClaims {
	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return nil
	}
	payload, err := b64url.DecodeText(parts[1])
	if err != nil {
		return nil
	}
	var mc jwt.MapClaims
	if err := json.Unmarshal([]byte(payload), &mc); err != nil {
		return nil
	}
	sub, _ := mc.GetSubject()
	return &UntrustedClaims{
		Sub:   sub,
		Name:  stringClaim(mc, "name"),
		Email: stringClaim(mc, "email"),
	}
}

// stringClaim returns claim key if it is a JSON string, "" otherwise.
func stringClaim(mc jwt.MapClaims, key string) string {
	s, _ := mc[key].(string)
	return s
}
