package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/MGallo-Code/pawlink/internal/auth"
	"github.com/MGallo-Code/pawlink/internal/config"
	"github.com/MGallo-Code/pawlink/internal/launcher"
	"github.com/MGallo-Code/pawlink/internal/metrics"
	"github.com/MGallo-Code/pawlink/internal/oauth"
	"github.com/MGallo-Code/pawlink/internal/pkce"
	"github.com/MGallo-Code/pawlink/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Embeds the migration files INTO the go bin

//go:embed migrations/*.sql
var migrationsDir embed.FS

// supportedProviders lists every provider pawlink can sign in with, by route name.
func supportedProviders() map[string]oauth.Provider {
	return map[string]oauth.Provider{
		"line": oauth.LINE(),
		"x":    oauth.X(),
	}
}

func main() {
	// Cancel ctx on SIGINT/SIGTERM; run()/runLogin() return when ctx is done.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) > 1 && os.Args[1] == "login" {
		if err := runLogin(ctx, os.Args[2:], os.Stdout, supportedProviders(), launcher.SystemBrowser); err != nil {
			fmt.Fprintln(os.Stderr, "login failed:", err)
			stop()
			os.Exit(1)
		}
		return
	}

	// Load config first so we can set log level
	cfg, err := config.LoadConfig()
	if err != nil {
		// Fallback logger before config is available
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}

	// Include source location in log entries at debug level only.
	addSrc := cfg.LogLevel == slog.LevelDebug

	// Set up slog to output as json with configured level
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     cfg.LogLevel,
		AddSource: addSrc,
	})))

	// run() is a separate func so deferred closes (ps, rdb) always execute before os.Exit.
	if err := run(ctx, cfg, supportedProviders(), nil); err != nil {
		slog.Error("fatal", "err", err)
		stop()
		os.Exit(1)
	}
}

// newFlow builds the sign-in flow for p from auth settings.
// Returns a ConfigurationError when p's client id is not configured.
func newFlow(cfg *config.AuthConfig, p oauth.Provider, redirectURI string) (*oauth.Flow, error) {
	client, err := cfg.Client(p.Name)
	if err != nil {
		return nil, err
	}
	if redirectURI != "" {
		client.RedirectURI = redirectURI
	}
	return oauth.NewFlow(p, client,
		oauth.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		oauth.WithGenerator(&pkce.Generator{AllowWeak: cfg.AllowWeakRandom, Digest: cfg.Digest}),
	)
}

// enabledFlows builds a flow for every provider that has credentials.
// Unconfigured providers are logged and left out; their routes answer 404.
func enabledFlows(cfg *config.AuthConfig, providers map[string]oauth.Provider) map[string]*oauth.Flow {
	flows := make(map[string]*oauth.Flow, len(providers))
	for name, p := range providers {
		f, err := newFlow(cfg, p, "")
		if err != nil {
			slog.Warn("provider disabled", "provider", name, "reason", oauth.Reason(err), "error", err)
			continue
		}
		flows[name] = f
		slog.Info("provider enabled", "provider", name)
	}
	return flows
}

// run holds all server logic and returns error instead of calling os.Exit,
// so deferred resource cleanup (ps.Close, rdb.Close) always runs.
// Shuts down when ctx is cancelled (signal handling is the caller's concern).
// If ready is non-nil, the server's base URL is sent on it once the listener is bound.
func run(ctx context.Context, cfg *config.Config, providers map[string]oauth.Provider, ready chan<- string) error {
	// Create new postgres store, return errors if any
	ps, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to set up postgres store: %w", err)
	}
	// Close at end of run func
	defer ps.Close()

	// Run database migrations
	migrationsFS, err := fs.Sub(migrationsDir, "migrations")
	if err != nil {
		return fmt.Errorf("failed to access embedded migrations: %w", err)
	}
	if err := ps.Migrate(ctx, migrationsFS); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	rdb, err := store.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to set up redis client: %w", err)
	}
	defer rdb.Close()

	if !strings.HasPrefix(cfg.Auth.RedirectURI, "https://") {
		slog.Warn("redirect uri is an app deep link; the app must forward it to /auth/callback",
			"redirect_uri", cfg.Auth.RedirectURI)
	}

	// Per-run registry so repeated run() calls (tests) never double-register.
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	h := auth.AuthHandler{
		PS:      ps,
		RS:      store.NewPendingStore(rdb, cfg.Auth.PendingTTL),
		Flows:   enabledFlows(cfg.Auth, providers),
		Metrics: metrics.New(reg),
	}

	// Bind listener; ":0" picks a free port (useful in tests).
	ln, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	server := &http.Server{
		Handler:           buildRouter(&h, metrics.Handler(reg)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine; run() continues past this.
	errCh := make(chan error, 1)
	go func() {
		slog.Info("pawlink listening", "addr", ln.Addr().String())
		// Send error only if server stops for a reason other than explicit shutdown.
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Signal readiness to caller (used by tests; nil in production).
	if ready != nil {
		ready <- "http://" + ln.Addr().String()
	}

	// Wait for server error or shutdown signal from ctx.
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")
	// In-flight callbacks finish their provider calls within HTTP_TIMEOUT; 30s covers two.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// buildRouter wires all routes and middleware.
// Called from run() and smoke tests.
func buildRouter(h *auth.AuthHandler, metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	// No middleware.Logger: it logs the raw query, and callbacks carry authorization codes.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", h.CheckHealth)
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Route("/auth", func(r chi.Router) {
		// Static segment wins over {provider} in chi, so "callback" is never a provider name.
		r.Get("/callback", h.SocialCallback)
		r.Get("/{provider}", h.SocialStart)
	})

	return r
}
