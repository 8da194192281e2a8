package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MGallo-Code/pawlink/internal/oauth"
)

const testPendingTTL = 2 * time.Second

func testPendingRequest(state string) *oauth.AuthorizationRequest {
	return &oauth.AuthorizationRequest{
		Provider:      "line",
		State:         state,
		CodeVerifier:  "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk",
		CodeChallenge: "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM",
		RedirectURI:   "pawlink://auth/callback",
		AuthorizeURL:  "https://access.line.me/oauth2/v2.1/authorize",
		Scope:         "profile openid email",
		ClientID:      "line-client",
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
	}
}

// --- SavePending + TakePending ---

func TestPendingStore(t *testing.T) {
	requireRedis(t)
	ctx := context.Background()

	t.Run("round-trip returns the saved request", func(t *testing.T) {
		req := testPendingRequest("state-roundtrip")
		t.Cleanup(func() { testPending.rdb.Del(ctx, pendingKey(req.State)) })

		if err := testPending.SavePending(ctx, req); err != nil {
			t.Fatalf("SavePending failed: %v", err)
		}
		got, err := testPending.TakePending(ctx, req.State)
		if err != nil {
			t.Fatalf("TakePending failed: %v", err)
		}
		if !got.CreatedAt.Equal(req.CreatedAt) {
			t.Errorf("CreatedAt: expected %v, got %v", req.CreatedAt, got.CreatedAt)
		}
		got.CreatedAt = req.CreatedAt
		if *got != *req {
			t.Errorf("expected %+v, got %+v", req, got)
		}
	})

	t.Run("second take finds nothing", func(t *testing.T) {
		req := testPendingRequest("state-once")
		t.Cleanup(func() { testPending.rdb.Del(ctx, pendingKey(req.State)) })

		if err := testPending.SavePending(ctx, req); err != nil {
			t.Fatalf("SavePending failed: %v", err)
		}
		if _, err := testPending.TakePending(ctx, req.State); err != nil {
			t.Fatalf("first TakePending failed: %v", err)
		}
		if _, err := testPending.TakePending(ctx, req.State); !errors.Is(err, ErrPendingNotFound) {
			t.Errorf("expected ErrPendingNotFound, got %v", err)
		}
	})

	t.Run("refuses to overwrite an existing state", func(t *testing.T) {
		req := testPendingRequest("state-dup")
		t.Cleanup(func() { testPending.rdb.Del(ctx, pendingKey(req.State)) })

		if err := testPending.SavePending(ctx, req); err != nil {
			t.Fatalf("SavePending failed: %v", err)
		}
		if err := testPending.SavePending(ctx, req); !errors.Is(err, ErrPendingExists) {
			t.Errorf("expected ErrPendingExists, got %v", err)
		}
	})

	t.Run("sets TTL", func(t *testing.T) {
		req := testPendingRequest("state-ttl")
		t.Cleanup(func() { testPending.rdb.Del(ctx, pendingKey(req.State)) })

		if err := testPending.SavePending(ctx, req); err != nil {
			t.Fatalf("SavePending failed: %v", err)
		}
		ttl, err := testPending.rdb.TTL(ctx, pendingKey(req.State)).Result()
		if err != nil {
			t.Fatalf("TTL: %v", err)
		}
		if ttl <= 0 || ttl > testPendingTTL {
			t.Errorf("TTL: expected (0, %v], got %v", testPendingTTL, ttl)
		}
	})

	t.Run("unknown state", func(t *testing.T) {
		if _, err := testPending.TakePending(ctx, "never-saved"); !errors.Is(err, ErrPendingNotFound) {
			t.Errorf("expected ErrPendingNotFound, got %v", err)
		}
	})

	t.Run("health check", func(t *testing.T) {
		if err := testPending.CheckHealth(ctx); err != nil {
			t.Errorf("CheckHealth: %v", err)
		}
	})
}
