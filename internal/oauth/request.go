package oauth

import "time"

// AuthorizationRequest is one sign-in attempt's secrets and parameters.
// Created by Flow.Begin right before the authorize step and consumed by exactly one callback.
// CodeVerifier stays local until the token exchange and is never placed in the authorize URL.
type AuthorizationRequest struct {
	Provider      string
	State         string
	CodeVerifier  string
	CodeChallenge string
	RedirectURI   string
	AuthorizeURL  string
	Scope         string
	ClientID      string
	// WeakRandom is set when State or CodeVerifier came from the non-cryptographic fallback.
	WeakRandom bool
	CreatedAt  time.Time
}
