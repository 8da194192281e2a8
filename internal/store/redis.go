// redis.go -- go-redis client for in-flight sign-in state.
//
// Server-mode sign-ins span two requests: /auth/{provider} creates the
// AuthorizationRequest and /auth/callback finishes it. The request, including the
// code verifier, waits here between the two under "pending_auth:<state>" with a TTL.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MGallo-Code/pawlink/internal/oauth"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to Redis and returns a shared client.
// It pings Redis to verify connectivity before returning.
// Call once at startup from main.go. The returned client is safe for concurrent use.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// PendingStore keeps AuthorizationRequests between redirect and callback.
type PendingStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewPendingStore wraps a shared client. ttl bounds how long a user may take at the provider.
func NewPendingStore(rdb *redis.Client, ttl time.Duration) *PendingStore {
	return &PendingStore{rdb: rdb, ttl: ttl}
}

func pendingKey(state string) string {
	return fmt.Sprintf("pending_auth:%s", state)
}

// SavePending stores req under its state. Refuses to overwrite an existing entry.
func (s *PendingStore) SavePending(ctx context.Context, req *oauth.AuthorizationRequest) error {
	data, err := json.Marshal(pendingFromRequest(req))
	if err != nil {
		return fmt.Errorf("marshaling pending sign-in: %w", err)
	}

	ok, err := s.rdb.SetNX(ctx, pendingKey(req.State), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("saving pending sign-in: %w", err)
	}
	if !ok {
		return ErrPendingExists
	}
	return nil
}

// TakePending returns and deletes the request saved under state in one GETDEL,
// so a replayed callback finds nothing.
func (s *PendingStore) TakePending(ctx context.Context, state string) (*oauth.AuthorizationRequest, error) {
	raw, err := s.rdb.GetDel(ctx, pendingKey(state)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrPendingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching pending sign-in: %w", err)
	}

	var p PendingAuth
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parsing pending sign-in: %w", err)
	}
	return p.request(), nil
}

// CheckHealth pings Redis. Used by the /health handler.
func (s *PendingStore) CheckHealth(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
