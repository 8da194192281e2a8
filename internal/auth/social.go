// social.go -- Server-mode social sign-in: GET /auth/{provider} and GET /auth/callback.
//
// The redirect step saves the AuthorizationRequest (state + code verifier) in the
// pending store and sends the browser to the provider. The callback step takes it
// back out by state, exactly once, and finishes the PKCE exchange.
package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/MGallo-Code/pawlink/internal/oauth"
	"github.com/MGallo-Code/pawlink/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"
)

// providerUnknown labels metrics for callbacks that match no pending sign-in.
const providerUnknown = "unknown"

// signInResponse is the body of a successful callback.
type signInResponse struct {
	UserID  string         `json:"user_id"`
	Profile *oauth.Profile `json:"profile"`
}

// SocialStart handles GET /auth/{provider} -- begins a PKCE attempt, saves it as
// pending, and redirects to the provider's consent page.
func (h *AuthHandler) SocialStart(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "provider")
	flow, ok := h.flowFor(w, r, name)
	if !ok {
		return
	}

	req, err := flow.Begin()
	if err != nil {
		logError(r, "failed to begin sign-in", "provider", name, "error", err)
		InternalServerError(w, r, err)
		return
	}

	if err := h.RS.SavePending(r.Context(), req); err != nil {
		logError(r, "failed to save pending sign-in", "provider", name, "error", err)
		InternalServerError(w, r, err)
		return
	}

	h.Metrics.RecordStart(name)
	logInfo(r, "sign-in started", "provider", name, "weak_random", req.WeakRandom)
	http.Redirect(w, r, flow.AuthCodeURL(req), http.StatusFound)
}

// SocialCallback handles GET /auth/callback -- matches the redirect to its pending
// attempt by state, exchanges the code, and upserts the user.
// Responds 200 with user_id and the normalized profile.
func (h *AuthHandler) SocialCallback(w http.ResponseWriter, r *http.Request) {
	callbackURL := r.URL.String()

	// No matching attempt: ParseCallback with an empty expected state still reports a
	// provider error first, otherwise a state mismatch.
	req, err := h.takePending(r)
	if err != nil {
		h.Metrics.RecordOutcome(providerUnknown, err)
		InternalServerError(w, r, err)
		return
	}
	if req == nil {
		_, err := oauth.ParseCallback(callbackURL, "")
		h.Metrics.RecordOutcome(providerUnknown, err)
		writeSignInError(w, r, providerUnknown, err)
		return
	}

	flow, ok := h.Flows[req.Provider]
	if !ok {
		// Provider was disabled between redirect and callback.
		h.Metrics.RecordOutcome(req.Provider, &oauth.ConfigurationError{Field: "provider " + req.Provider, Reason: "is not enabled"})
		logWarn(r, "callback for provider that is no longer enabled", "provider", req.Provider)
		NotFound(w, r, "unknown provider")
		return
	}

	start := time.Now()
	profile, err := flow.Complete(r.Context(), req, callbackURL)
	h.Metrics.ObserveExchange(req.Provider, start)
	if err != nil {
		h.Metrics.RecordOutcome(req.Provider, err)
		writeSignInError(w, r, req.Provider, err)
		return
	}

	userID, err := uuid.NewV7()
	if err != nil {
		InternalServerError(w, r, err)
		return
	}
	user, err := h.PS.UpsertSocialUser(r.Context(), userID, profile)
	if err != nil {
		logError(r, "failed to upsert social user", "provider", req.Provider, "error", err)
		h.Metrics.RecordOutcome(req.Provider, err)
		InternalServerError(w, r, err)
		return
	}

	h.Metrics.RecordOutcome(req.Provider, nil)
	logInfo(r, "social user signed in", "provider", req.Provider, "user_id", user.ID)
	writeJSON(w, http.StatusOK, signInResponse{UserID: user.ID.String(), Profile: profile})
}

// takePending consumes the pending attempt named by the callback's state.
// Returns (nil, nil) when there is none.
func (h *AuthHandler) takePending(r *http.Request) (*oauth.AuthorizationRequest, error) {
	state := r.URL.Query().Get("state")
	if state == "" {
		return nil, nil
	}
	req, err := h.RS.TakePending(r.Context(), state)
	if errors.Is(err, store.ErrPendingNotFound) {
		logDebug(r, "callback state matches no pending sign-in")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return req, nil
}

// writeSignInError maps a sign-in failure to its HTTP status.
// Classified failures carry their own message; anything else is a generic 500.
func writeSignInError(w http.ResponseWriter, r *http.Request, provider string, err error) {
	reason := oauth.Reason(err)
	switch reason {
	case "provider_error", "missing_code", "invalid_callback", "cancelled":
		logWarn(r, "sign-in failed", "provider", provider, "reason", reason, "error", err)
		BadRequest(w, r, err.Error(), reason)
	case "state_mismatch":
		logWarn(r, "sign-in failed", "provider", provider, "reason", reason, "error", err)
		Unauthorized(w, r, err.Error(), reason)
	case "token_exchange_failed", "missing_access_token", "profile_fetch_failed", "missing_user_id":
		logWarn(r, "sign-in failed", "provider", provider, "reason", reason, "error", err)
		BadGateway(w, r, err.Error(), reason)
	default:
		InternalServerError(w, r, err)
	}
}
