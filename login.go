// login.go -- "pawlink login": interactive sign-in from a terminal.
//
// Runs the whole PKCE flow locally: opens the browser at the provider, receives the
// redirect on a loopback listener, exchanges the code, and prints the profile as JSON.
// Needs only the provider client settings; no database or cache.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/MGallo-Code/pawlink/internal/config"
	"github.com/MGallo-Code/pawlink/internal/launcher"
	"github.com/MGallo-Code/pawlink/internal/oauth"
)

const defaultLoopbackRedirect = "http://127.0.0.1:8765/auth/callback"

// runLogin parses login flags, signs in through the loopback session and writes the
// profile to stdout. open launches the browser.
func runLogin(ctx context.Context, args []string, stdout io.Writer, providers map[string]oauth.Provider, open launcher.OpenFunc) error {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)

	flags := flag.NewFlagSet("login", flag.ContinueOnError)
	provider := flags.String("provider", "", "provider to sign in with: "+strings.Join(names, ", "))
	redirect := flags.String("redirect", defaultLoopbackRedirect, "loopback redirect uri registered with the provider")
	timeout := flags.Duration("timeout", 5*time.Minute, "how long to wait for the browser sign-in")
	if err := flags.Parse(args); err != nil {
		return err
	}

	p, ok := providers[*provider]
	if !ok {
		return fmt.Errorf("unknown provider %q (want one of %s)", *provider, strings.Join(names, ", "))
	}

	cfg, err := config.LoadAuthConfig()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	flow, err := newFlow(cfg, p, *redirect)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	profile, err := flow.Run(ctx, &launcher.Loopback{Open: open})
	if errors.Is(err, oauth.ErrUserCancelled) {
		return errors.New("sign-in cancelled")
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(profile)
}
