// providers.go
//
// Fake provider token and profile endpoints for handler and smoke tests.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/MGallo-Code/pawlink/internal/oauth"
)

// ProviderServer serves POST /token and GET /profile with canned responses.
// Change responses with SetToken/SetProfile; read what the client sent with LastTokenForm.
type ProviderServer struct {
	*httptest.Server

	mu            sync.Mutex
	tokenStatus   int
	tokenBody     string
	profileStatus int
	profileBody   string
	tokenForm     url.Values
	authHeader    string
}

// NewProviderServer starts a fake provider answering 200 with the given bodies.
// Closed automatically when the test ends.
func NewProviderServer(t testing.TB, tokenBody, profileBody string) *ProviderServer {
	t.Helper()
	ps := &ProviderServer{
		tokenStatus:   http.StatusOK,
		tokenBody:     tokenBody,
		profileStatus: http.StatusOK,
		profileBody:   profileBody,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		ps.mu.Lock()
		ps.tokenForm = r.PostForm
		status, body := ps.tokenStatus, ps.tokenBody
		ps.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	})
	mux.HandleFunc("GET /profile", func(w http.ResponseWriter, r *http.Request) {
		ps.mu.Lock()
		ps.authHeader = r.Header.Get("Authorization")
		status, body := ps.profileStatus, ps.profileBody
		ps.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	})

	ps.Server = httptest.NewServer(mux)
	t.Cleanup(ps.Close)
	return ps
}

// Bind points p's token and profile endpoints at this server.
func (ps *ProviderServer) Bind(p oauth.Provider) oauth.Provider {
	p.TokenURL = ps.URL + "/token"
	p.ProfileURL = ps.URL + "/profile"
	return p
}

// SetToken replaces the token endpoint response.
func (ps *ProviderServer) SetToken(status int, body string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.tokenStatus, ps.tokenBody = status, body
}

// SetProfile replaces the profile endpoint response.
func (ps *ProviderServer) SetProfile(status int, body string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.profileStatus, ps.profileBody = status, body
}

// LastTokenForm returns the form of the most recent token request.
func (ps *ProviderServer) LastTokenForm() url.Values {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.tokenForm
}

// LastAuthorization returns the Authorization header of the most recent profile request.
func (ps *ProviderServer) LastAuthorization() string {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.authHeader
}
