// errors.go -- Sign-in failure taxonomy.
//
// Every failure ends the attempt. Nothing here is retried; the caller restarts
// from a fresh AuthorizationRequest.
package oauth

import (
	"errors"
	"fmt"
)

// ErrUserCancelled is returned when the user dismisses the authorization surface.
var ErrUserCancelled = errors.New("sign-in was cancelled")

// ErrStateMismatch is returned when the callback state is missing or differs from the request.
var ErrStateMismatch = errors.New("oauth state mismatch")

// ErrMissingCode is returned when a callback carries neither an error nor a code.
var ErrMissingCode = errors.New("authorization code missing from callback")

// ErrMissingUserID is returned when the profile endpoint omits the provider user id.
var ErrMissingUserID = errors.New("profile response missing user id")

// ErrMissingAccessToken is returned when a 2xx token response carries no access_token.
var ErrMissingAccessToken = errors.New("token response missing access_token")

// ErrInvalidCallback is returned when the redirect URL cannot be parsed.
var ErrInvalidCallback = errors.New("invalid callback url")

// ErrLauncherUsed is returned by Launch on a launcher that already ran an attempt.
var ErrLauncherUsed = errors.New("launcher already used")

// ConfigurationError reports a missing or malformed setting, raised before any network call.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s %s", e.Field, e.Reason)
}

// ProviderError carries the error the provider redirected back with.
type ProviderError struct {
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("provider returned error: %s", e.Code)
	}
	return fmt.Sprintf("provider returned error: %s: %s", e.Code, e.Description)
}

// TokenExchangeError is a token endpoint response that cannot be used: a non-2xx
// status, or a 2xx body that breaks the token contract (Err says how). Body is kept
// verbatim because providers put hints there (redirect_uri mismatch, invalid_grant).
type TokenExchangeError struct {
	Status int
	Body   string
	Err    error
}

func (e *TokenExchangeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token exchange failed with status %d: %v: %s", e.Status, e.Err, e.Body)
	}
	return fmt.Sprintf("token exchange failed with status %d: %s", e.Status, e.Body)
}

func (e *TokenExchangeError) Unwrap() error { return e.Err }

// ProfileFetchError is a non-2xx profile endpoint response.
type ProfileFetchError struct {
	Status int
	Body   string
}

func (e *ProfileFetchError) Error() string {
	return fmt.Sprintf("profile fetch failed with status %d: %s", e.Status, e.Body)
}

// SessionError wraps a failure of the authorization session mechanism itself.
type SessionError struct {
	Err error
}

func (e *SessionError) Error() string { return "authorization session failed: " + e.Err.Error() }
func (e *SessionError) Unwrap() error { return e.Err }

// Reason maps err to a stable, low-cardinality label for logs and metrics.
func Reason(err error) string {
	var (
		cfgErr      *ConfigurationError
		providerErr *ProviderError
		tokenErr    *TokenExchangeError
		profileErr  *ProfileFetchError
		sessionErr  *SessionError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUserCancelled):
		return "cancelled"
	case errors.As(err, &cfgErr):
		return "configuration"
	case errors.As(err, &providerErr):
		return "provider_error"
	case errors.Is(err, ErrStateMismatch):
		return "state_mismatch"
	case errors.Is(err, ErrMissingCode):
		return "missing_code"
	case errors.Is(err, ErrInvalidCallback):
		return "invalid_callback"
	case errors.Is(err, ErrMissingAccessToken):
		return "missing_access_token"
	case errors.As(err, &tokenErr):
		return "token_exchange_failed"
	case errors.As(err, &profileErr):
		return "profile_fetch_failed"
	case errors.Is(err, ErrMissingUserID):
		return "missing_user_id"
	case errors.As(err, &sessionErr):
		return "session_failed"
	default:
		return "internal"
	}
}
