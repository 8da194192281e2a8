// flow.go -- Generic OAuth2 PKCE sign-in flow, parameterized by Provider.
//
// Begin -> AuthCodeURL -> (session or HTTP redirect) -> Complete/Exchange.
// Run strings the steps together for interactive sessions.
package oauth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MGallo-Code/pawlink/internal/pkce"
	"golang.org/x/oauth2"
)

// maxProfileBody caps how much of a token or profile response is read.
const maxProfileBody = 1 << 20

// Flow runs sign-in attempts against one provider. Safe for concurrent use;
// each attempt owns its own AuthorizationRequest.
type Flow struct {
	provider Provider
	client   Client
	gen      *pkce.Generator
	hc       *http.Client
	now      func() time.Time
}

// Option configures a Flow.
type Option func(*Flow)

// WithHTTPClient sets the client used for token and profile calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(f *Flow) { f.hc = hc }
}

// WithGenerator sets the PKCE/state generator.
func WithGenerator(g *pkce.Generator) Option {
	return func(f *Flow) { f.gen = g }
}

// NewFlow validates the client registration and returns a Flow.
// Returns *ConfigurationError before any network activity if the client id or redirect URI is unusable.
func NewFlow(p Provider, c Client, opts ...Option) (*Flow, error) {
	if p.Normalize == nil {
		return nil, &ConfigurationError{Field: p.Name + " provider", Reason: "has no profile normalizer"}
	}
	if strings.TrimSpace(c.ClientID) == "" {
		return nil, &ConfigurationError{Field: p.Name + " client id", Reason: "is required"}
	}
	u, err := url.Parse(c.RedirectURI)
	if err != nil || !u.IsAbs() {
		return nil, &ConfigurationError{Field: p.Name + " redirect uri", Reason: "must be an absolute uri"}
	}

	f := &Flow{
		provider: p,
		client:   c,
		gen:      &pkce.Generator{},
		hc:       http.DefaultClient,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Provider returns the provider this flow signs in with.
func (f *Flow) Provider() Provider { return f.provider }

// Begin creates a fresh AuthorizationRequest with its own state and verifier.
func (f *Flow) Begin() (*AuthorizationRequest, error) {
	state, weakState, err := f.gen.NewState()
	if err != nil {
		return nil, err
	}
	pair, err := f.gen.NewPair()
	if err != nil {
		return nil, err
	}

	req := &AuthorizationRequest{
		Provider:      f.provider.Name,
		State:         state,
		CodeVerifier:  pair.Verifier,
		CodeChallenge: pair.Challenge,
		RedirectURI:   f.client.RedirectURI,
		AuthorizeURL:  f.provider.AuthorizeURL,
		Scope:         f.provider.Scope(),
		ClientID:      f.client.ClientID,
		WeakRandom:    weakState || pair.Weak,
		CreatedAt:     f.now(),
	}
	if req.WeakRandom {
		slog.Warn("sign-in attempt using non-cryptographic random source", "provider", f.provider.Name)
	}
	return req, nil
}

// AuthCodeURL returns the provider authorize URL for req: response_type, client_id,
// redirect_uri, state, scope, code_challenge and code_challenge_method=S256.
func (f *Flow) AuthCodeURL(req *AuthorizationRequest) string {
	return f.config(req).AuthCodeURL(req.State,
		oauth2.SetAuthURLParam("code_challenge", req.CodeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", pkce.Method),
	)
}

// Complete validates callbackURL against req and exchanges the code for a profile.
func (f *Flow) Complete(ctx context.Context, req *AuthorizationRequest, callbackURL string) (*Profile, error) {
	res, err := ParseCallback(callbackURL, req.State)
	if err != nil {
		return nil, err
	}
	return f.Exchange(ctx, req, res.Code)
}

// Run performs a whole interactive sign-in through s.
func (f *Flow) Run(ctx context.Context, s Session) (*Profile, error) {
	req, err := f.Begin()
	if err != nil {
		return nil, err
	}
	res, err := NewLauncher(s).Launch(ctx, f.AuthCodeURL(req), req)
	if err != nil {
		return nil, err
	}
	return f.Exchange(ctx, req, res.Code)
}

// Exchange trades code (plus req's verifier) for tokens, fetches the profile and normalizes it.
// Calls are sequential: the profile request needs the access token.
func (f *Flow) Exchange(ctx context.Context, req *AuthorizationRequest, code string) (*Profile, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, f.hc)

	rec := &tokenRecorder{}
	exchangeCtx := context.WithValue(ctx, oauth2.HTTPClient, rec.wrap(f.hc))
	tok, err := f.config(req).Exchange(exchangeCtx, code, oauth2.VerifierOption(req.CodeVerifier))
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			status := 0
			if re.Response != nil {
				status = re.Response.StatusCode
			}
			return nil, &TokenExchangeError{Status: status, Body: string(re.Body)}
		}
		if rec.status >= 200 && rec.status <= 299 {
			return nil, tokenContractError(rec, err)
		}
		return nil, fmt.Errorf("exchanging code: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, &TokenExchangeError{Status: rec.status, Body: string(rec.body), Err: ErrMissingAccessToken}
	}

	tr := &TokenResponse{
		AccessToken: tok.AccessToken,
		TokenType:   tok.Type(),
		Expiry:      tok.Expiry,
	}
	if idToken, ok := tok.Extra("id_token").(string); ok {
		tr.IDToken = idToken
	}

	body, err := f.fetchProfile(ctx, tok)
	if err != nil {
		return nil, err
	}

	profile, err := f.provider.Normalize(tr, body)
	if err != nil {
		return nil, err
	}
	profile.Provider = f.provider.Name
	return profile, nil
}

// fetchProfile GETs the provider profile endpoint with tok as bearer credential.
func (f *Flow) fetchProfile(ctx context.Context, tok *oauth2.Token) ([]byte, error) {
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(tok))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.provider.ProfileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building profile request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching profile: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBody))
	if err != nil {
		return nil, fmt.Errorf("reading profile response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProfileFetchError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// tokenContractError reports a 2xx token response that x/oauth2 refused to turn into a token.
func tokenContractError(rec *tokenRecorder, err error) error {
	te := &TokenExchangeError{Status: rec.status, Body: string(rec.body)}
	if strings.Contains(err.Error(), "missing access_token") {
		te.Err = ErrMissingAccessToken
	} else {
		te.Err = err
	}
	return te
}

// tokenRecorder keeps the status and body of the token endpoint response so a
// malformed 2xx answer can be reported verbatim.
type tokenRecorder struct {
	base   http.RoundTripper
	status int
	body   []byte
}

// wrap returns a copy of hc whose transport records through rec. Timeouts are kept.
func (rec *tokenRecorder) wrap(hc *http.Client) *http.Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	c := *hc
	rec.base = hc.Transport
	if rec.base == nil {
		rec.base = http.DefaultTransport
	}
	c.Transport = rec
	return &c
}

func (rec *tokenRecorder) RoundTrip(r *http.Request) (*http.Response, error) {
	resp, err := rec.base.RoundTrip(r)
	if err != nil {
		return nil, err
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBody))
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("reading token response: %w", err)
	}
	rec.status = resp.StatusCode
	rec.body = body
	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	return resp, nil
}

// config builds the oauth2 client config for req. The request's redirect URI wins so a
// pending server-side request exchanges with the same redirect it authorized with.
// AuthStyleInParams sends client_id in the form and client_secret only when non-empty.
func (f *Flow) config(req *AuthorizationRequest) *oauth2.Config {
	var scopes []string
	if req.Scope != "" {
		scopes = strings.Fields(req.Scope)
	}
	return &oauth2.Config{
		ClientID:     f.client.ClientID,
		ClientSecret: f.client.ClientSecret,
		RedirectURL:  req.RedirectURI,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   f.provider.AuthorizeURL,
			TokenURL:  f.provider.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}
