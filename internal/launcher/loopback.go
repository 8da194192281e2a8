// Package launcher provides interactive authorization sessions for desktop and CLI sign-in.
//
// loopback.go -- Opens the system browser and receives the provider redirect on a
// loopback listener bound to the redirect URI's host and port.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/MGallo-Code/pawlink/internal/oauth"
	"github.com/go-chi/chi/v5"
)

// ErrNotLoopback is returned when the redirect URI cannot be served locally.
var ErrNotLoopback = errors.New("redirect uri is not an http loopback address with an explicit port")

const donePage = `<!doctype html><html><body><p>Sign-in finished. You can close this window and return to pawlink.</p></body></html>`

// OpenFunc opens url in a user-visible browser.
type OpenFunc func(url string) error

// SystemBrowser opens url with the platform's default URL handler.
func SystemBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// Loopback implements oauth.Session for a local browser.
// GET <redirect path> resolves the session with the full callback URL;
// GET <redirect path>/cancel resolves it as a user cancellation.
type Loopback struct {
	// Open launches the browser. Nil means SystemBrowser.
	Open OpenFunc
}

type outcome struct {
	callbackURL string
	err         error
}

// Authorize serves redirectURI locally, opens authorizeURL, and waits for the redirect,
// the cancel path, or ctx. The listener is closed on every return path.
func (l *Loopback) Authorize(ctx context.Context, authorizeURL, redirectURI string) (string, error) {
	redirect, err := url.Parse(redirectURI)
	if err != nil || redirect.Scheme != "http" || redirect.Port() == "" || !isLoopbackHost(redirect.Hostname()) {
		return "", fmt.Errorf("%w: %q", ErrNotLoopback, redirectURI)
	}

	ln, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return "", fmt.Errorf("listening on %s: %w", redirect.Host, err)
	}

	results := make(chan outcome, 1)
	deliver := func(o outcome) {
		// First resolution wins; later hits (refreshes, favicon races) are ignored.
		select {
		case results <- o:
		default:
		}
	}

	path := redirect.Path
	if path == "" {
		path = "/"
	}
	r := chi.NewRouter()
	r.Get(path, func(w http.ResponseWriter, req *http.Request) {
		cb := *redirect
		cb.RawQuery = req.URL.RawQuery
		deliver(outcome{callbackURL: cb.String()})
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(donePage))
	})
	r.Get(strings.TrimSuffix(path, "/")+"/cancel", func(w http.ResponseWriter, req *http.Request) {
		deliver(outcome{err: oauth.ErrUserCancelled})
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(donePage))
	})

	srv := &http.Server{Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Warn("loopback callback server stopped", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	open := l.Open
	if open == nil {
		open = SystemBrowser
	}
	if err := open(authorizeURL); err != nil {
		return "", fmt.Errorf("opening browser: %w", err)
	}
	slog.Info("waiting for sign-in in browser", "redirect_uri", redirectURI)

	select {
	case o := <-results:
		return o.callbackURL, o.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func isLoopbackHost(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
