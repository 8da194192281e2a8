package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/MGallo-Code/pawlink/internal/oauth"
	"github.com/MGallo-Code/pawlink/internal/testutil"
)

const (
	loginLineToken   = `{"access_token":"line-at","token_type":"Bearer","expires_in":2592000}`
	loginLineProfile = `{"userId":"U1234","displayName":"Cony","pictureUrl":"https://profile.line-scdn.net/c"}`
)

// loopbackRedirect returns a loopback redirect uri on a port that was free a moment ago.
func loopbackRedirect(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("finding free port: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return "http://" + addr + "/auth/callback"
}

// fakeBrowser plays the user approving at the provider: it follows the redirect back
// to the loopback listener with a code and the state from the authorize URL.
func fakeBrowser(redirect, suffix string) func(string) error {
	return func(authorizeURL string) error {
		u, err := url.Parse(authorizeURL)
		if err != nil {
			return err
		}
		target := redirect + "?code=login-code&state=" + url.QueryEscape(u.Query().Get("state"))
		if suffix != "" {
			target = redirect + suffix
		}
		go func() {
			if resp, err := http.Get(target); err == nil {
				resp.Body.Close()
			}
		}()
		return nil
	}
}

func setLoginEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LINE_CLIENT_ID", "line-client")
	t.Setenv("LINE_CLIENT_SECRET", "")
	t.Setenv("OAUTH_CALLBACK_URL", "")
	t.Setenv("PKCE_DIGEST", "portable")
}

func TestRunLogin(t *testing.T) {
	t.Run("prints normalized profile", func(t *testing.T) {
		setLoginEnv(t)
		fake := testutil.NewProviderServer(t, loginLineToken, loginLineProfile)
		providers := map[string]oauth.Provider{"line": fake.Bind(oauth.LINE())}
		redirect := loopbackRedirect(t)

		var out bytes.Buffer
		err := runLogin(context.Background(),
			[]string{"-provider", "line", "-redirect", redirect},
			&out, providers, fakeBrowser(redirect, ""))
		if err != nil {
			t.Fatalf("runLogin: %v", err)
		}

		var p oauth.Profile
		if err := json.Unmarshal(out.Bytes(), &p); err != nil {
			t.Fatalf("decoding output %q: %v", out.String(), err)
		}
		if p.ExternalID != "U1234" || p.Name != "Cony" || p.Provider != "line" {
			t.Errorf("profile: got %+v", p)
		}
		if got := fake.LastTokenForm().Get("redirect_uri"); got != redirect {
			t.Errorf("token redirect_uri: expected %q, got %q", redirect, got)
		}
	})

	t.Run("cancel page reports cancellation", func(t *testing.T) {
		setLoginEnv(t)
		fake := testutil.NewProviderServer(t, loginLineToken, loginLineProfile)
		providers := map[string]oauth.Provider{"line": fake.Bind(oauth.LINE())}
		redirect := loopbackRedirect(t)

		err := runLogin(context.Background(),
			[]string{"-provider", "line", "-redirect", redirect},
			&bytes.Buffer{}, providers, fakeBrowser(redirect, "/cancel"))
		if err == nil || !strings.Contains(err.Error(), "cancelled") {
			t.Errorf("expected cancellation error, got %v", err)
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		setLoginEnv(t)
		err := runLogin(context.Background(), []string{"-provider", "google"},
			&bytes.Buffer{}, supportedProviders(), fakeBrowser("", ""))
		if err == nil || !strings.Contains(err.Error(), "unknown provider") {
			t.Errorf("expected unknown provider error, got %v", err)
		}
	})

	t.Run("missing client id fails before opening a browser", func(t *testing.T) {
		setLoginEnv(t)
		t.Setenv("X_CLIENT_ID", "")
		opened := false

		err := runLogin(context.Background(), []string{"-provider", "x"},
			&bytes.Buffer{}, supportedProviders(), func(string) error { opened = true; return nil })

		var cfgErr *oauth.ConfigurationError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("expected ConfigurationError, got %v", err)
		}
		if opened {
			t.Error("browser must not open when configuration is invalid")
		}
	})
}
