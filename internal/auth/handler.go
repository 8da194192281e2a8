// handler.go -- Dependencies shared by the /auth/* HTTP handlers.
package auth

import (
	"context"
	"net/http"

	"github.com/MGallo-Code/pawlink/internal/metrics"
	"github.com/MGallo-Code/pawlink/internal/oauth"
	"github.com/MGallo-Code/pawlink/internal/store"
	"github.com/gofrs/uuid/v5"
)

// Store defines database operations needed by auth handlers.
// Satisfied by *store.PostgresStore.
type Store interface {
	// UpsertSocialUser records a sign-in keyed by (provider, external id).
	// id is used only when the account is new.
	UpsertSocialUser(ctx context.Context, id uuid.UUID, p *oauth.Profile) (*store.SocialUser, error)

	// CheckHealth pings the database.
	CheckHealth(ctx context.Context) error
}

// PendingStore holds AuthorizationRequests between redirect and callback.
// Satisfied by *store.PendingStore.
type PendingStore interface {
	// SavePending stores req under req.State until the configured TTL.
	SavePending(ctx context.Context, req *oauth.AuthorizationRequest) error

	// TakePending returns and removes the request saved under state.
	// Returns store.ErrPendingNotFound when there is none.
	TakePending(ctx context.Context, state string) (*oauth.AuthorizationRequest, error)

	// CheckHealth pings the cache.
	CheckHealth(ctx context.Context) error
}

// AuthHandler holds dependencies for all /auth/* HTTP handlers.
type AuthHandler struct {
	PS Store
	RS PendingStore

	// Flows holds one flow per enabled provider, keyed by provider name ("line", "x").
	Flows map[string]*oauth.Flow

	// Metrics may be nil.
	Metrics *metrics.Metrics
}

// flowFor resolves the {provider} path value. Writes 404 and returns false if unknown.
func (h *AuthHandler) flowFor(w http.ResponseWriter, r *http.Request, name string) (*oauth.Flow, bool) {
	f, ok := h.Flows[name]
	if !ok {
		logInfo(r, "sign-in requested for unknown provider", "provider", name)
		NotFound(w, r, "unknown provider")
		return nil, false
	}
	return f, true
}
