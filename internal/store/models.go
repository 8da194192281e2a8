// models.go -- Shared domain types for the store package.
// Used by both Postgres (durable users) and Redis (in-flight sign-ins).
package store

import (
	"errors"
	"time"

	"github.com/MGallo-Code/pawlink/internal/oauth"
	"github.com/gofrs/uuid/v5"
)

// ErrPendingNotFound is returned by TakePending when no sign-in is waiting under the state.
// Covers never-started, expired, and already-consumed attempts alike.
var ErrPendingNotFound = errors.New("pending sign-in not found")

// ErrPendingExists is returned by SavePending when the state is already in use.
var ErrPendingExists = errors.New("pending sign-in already exists")

// SocialUser represents a row in the social_users table.
// Nullable columns are pointers; nil means SQL NULL.
type SocialUser struct {
	ID          uuid.UUID
	Provider    string
	ExternalID  string
	Name        string
	Email       *string
	AvatarURL   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastLoginAt time.Time
}

// PendingAuth is the Redis JSON shape of an in-flight AuthorizationRequest.
// It holds the code verifier, so it lives only in Redis and only until its TTL.
type PendingAuth struct {
	Provider      string    `json:"provider"`
	State         string    `json:"state"`
	CodeVerifier  string    `json:"code_verifier"`
	CodeChallenge string    `json:"code_challenge"`
	RedirectURI   string    `json:"redirect_uri"`
	AuthorizeURL  string    `json:"authorize_url"`
	Scope         string    `json:"scope"`
	ClientID      string    `json:"client_id"`
	WeakRandom    bool      `json:"weak_random,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func pendingFromRequest(req *oauth.AuthorizationRequest) PendingAuth {
	return PendingAuth{
		Provider:      req.Provider,
		State:         req.State,
		CodeVerifier:  req.CodeVerifier,
		CodeChallenge: req.CodeChallenge,
		RedirectURI:   req.RedirectURI,
		AuthorizeURL:  req.AuthorizeURL,
		Scope:         req.Scope,
		ClientID:      req.ClientID,
		WeakRandom:    req.WeakRandom,
		CreatedAt:     req.CreatedAt,
	}
}

func (p PendingAuth) request() *oauth.AuthorizationRequest {
	return &oauth.AuthorizationRequest{
		Provider:      p.Provider,
		State:         p.State,
		CodeVerifier:  p.CodeVerifier,
		CodeChallenge: p.CodeChallenge,
		RedirectURI:   p.RedirectURI,
		AuthorizeURL:  p.AuthorizeURL,
		Scope:         p.Scope,
		ClientID:      p.ClientID,
		WeakRandom:    p.WeakRandom,
		CreatedAt:     p.CreatedAt,
	}
}
