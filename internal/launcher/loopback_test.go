// loopback_test.go -- unit tests for the loopback browser session.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/MGallo-Code/pawlink/internal/oauth"
)

// freeRedirect returns a loopback redirect URI on a port that was free a moment ago.
func freeRedirect(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("finding free port: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return "http://" + addr + "/auth/callback"
}

// browserHitting simulates the browser following the provider redirect to target.
func browserHitting(target func(authorizeURL string) string) OpenFunc {
	return func(authorizeURL string) error {
		go func() {
			resp, err := http.Get(target(authorizeURL))
			if err == nil {
				resp.Body.Close()
			}
		}()
		return nil
	}
}

func TestLoopback_Authorize(t *testing.T) {
	t.Run("returns callback url with query", func(t *testing.T) {
		redirect := freeRedirect(t)
		l := &Loopback{Open: browserHitting(func(authorizeURL string) string {
			u, _ := url.Parse(authorizeURL)
			return redirect + "?code=abc&state=" + u.Query().Get("state")
		})}

		got, err := l.Authorize(context.Background(), "https://provider.test/authorize?state=s1", redirect)
		if err != nil {
			t.Fatalf("Authorize: %v", err)
		}
		if got != redirect+"?code=abc&state=s1" {
			t.Errorf("callback: expected %q, got %q", redirect+"?code=abc&state=s1", got)
		}

		res, err := oauth.ParseCallback(got, "s1")
		if err != nil || res.Code != "abc" {
			t.Errorf("callback should parse: code=%q err=%v", res.Code, err)
		}
	})

	t.Run("cancel path reports user cancellation", func(t *testing.T) {
		redirect := freeRedirect(t)
		l := &Loopback{Open: browserHitting(func(string) string { return redirect + "/cancel" })}

		_, err := l.Authorize(context.Background(), "https://provider.test/authorize", redirect)
		if !errors.Is(err, oauth.ErrUserCancelled) {
			t.Errorf("expected ErrUserCancelled, got %v", err)
		}
	})

	t.Run("context cancellation abandons the wait", func(t *testing.T) {
		redirect := freeRedirect(t)
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		l := &Loopback{Open: func(string) error { return nil }}

		_, err := l.Authorize(ctx, "https://provider.test/authorize", redirect)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected context.DeadlineExceeded, got %v", err)
		}

		// Listener must be released once Authorize returns.
		u, _ := url.Parse(redirect)
		ln, err := net.Listen("tcp", u.Host)
		if err != nil {
			t.Fatalf("port still held after return: %v", err)
		}
		ln.Close()
	})

	t.Run("opener failure", func(t *testing.T) {
		redirect := freeRedirect(t)
		l := &Loopback{Open: func(string) error { return fmt.Errorf("no display") }}
		_, err := l.Authorize(context.Background(), "https://provider.test/authorize", redirect)
		if err == nil || !strings.Contains(err.Error(), "no display") {
			t.Errorf("expected opener error, got %v", err)
		}
	})

	for _, redirect := range []string{
		"pawlink://auth/callback",
		"https://127.0.0.1:8765/auth/callback",
		"http://example.com:8765/auth/callback",
		"http://127.0.0.1/auth/callback",
	} {
		t.Run("rejects "+redirect, func(t *testing.T) {
			l := &Loopback{Open: func(string) error { return nil }}
			_, err := l.Authorize(context.Background(), "https://provider.test/authorize", redirect)
			if !errors.Is(err, ErrNotLoopback) {
				t.Errorf("expected ErrNotLoopback, got %v", err)
			}
		})
	}
}

func TestIsLoopbackHost(t *testing.T) {
	for host, want := range map[string]bool{
		"localhost":   true,
		"127.0.0.1":   true,
		"::1":         true,
		"10.0.0.1":    false,
		"example.com": false,
	} {
		if got := isLoopbackHost(host); got != want {
			t.Errorf("isLoopbackHost(%q): expected %v, got %v", host, want, got)
		}
	}
}
