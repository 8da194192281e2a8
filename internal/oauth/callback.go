// callback.go -- Redirect parsing and anti-CSRF state validation.
package oauth

import (
	"crypto/subtle"
	"fmt"
	"net/url"
)

// CallbackResult is the only datum taken from a successful redirect.
type CallbackResult struct {
	Code string
}

// ParseCallback extracts the authorization code from a provider redirect.
//
// Checks run in a fixed order: provider error, then state, then code.
// Providers may redirect with an error and no state, so the error is reported first.
// An empty expectedState never matches.
func ParseCallback(rawURL, expectedState string) (CallbackResult, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return CallbackResult{}, fmt.Errorf("%w: %v", ErrInvalidCallback, err)
	}
	q := u.Query()

	if code := q.Get("error"); code != "" {
		return CallbackResult{}, &ProviderError{Code: code, Description: q.Get("error_description")}
	}

	state := q.Get("state")
	if expectedState == "" || state == "" ||
		subtle.ConstantTimeCompare([]byte(state), []byte(expectedState)) != 1 {
		return CallbackResult{}, ErrStateMismatch
	}

	code := q.Get("code")
	if code == "" {
		return CallbackResult{}, ErrMissingCode
	}
	return CallbackResult{Code: code}, nil
}
