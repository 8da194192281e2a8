// Package store handles all database and cache interactions.
//
// postgres.go -- pgxpool connection setup and queries.
// Creates a connection pool at startup, shared across all handlers.
// All queries use parameterized statements (no string concatenation).
package store

import (
	"context"
	"fmt"

	"github.com/MGallo-Code/pawlink/internal/oauth"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// The store used by program to connect with Postgres db
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a connection pool to PostgreSQL, pings it,
// and returns a ready-to-use store.
// Call once at startup from main.go; the returned store is safe for concurrent use.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	// Create a pool w/ database url, return if err
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	// Ping db to make sure connection works
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool}, nil
}

// Close shuts down the connection pool and releases all resources.
// Supposed to call via defer in main.go after creating the store.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// CheckHealth pings Postgres. Used by the /health handler.
func (s *PostgresStore) CheckHealth(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const socialUserColumns = "id, provider, external_id, name, email, avatar_url, created_at, updated_at, last_login_at"

// UpsertSocialUser records a completed sign-in, keyed by (provider, external_id).
// id is only used when the account is new; an existing row keeps its id and gets the
// latest name and avatar. A nil email never erases one already on file.
func (s *PostgresStore) UpsertSocialUser(ctx context.Context, id uuid.UUID, p *oauth.Profile) (*SocialUser, error) {
	var u SocialUser
	err := s.pool.QueryRow(ctx, `
		INSERT INTO social_users (id, provider, external_id, name, email, avatar_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (provider, external_id) DO UPDATE SET
			name          = EXCLUDED.name,
			email         = COALESCE(EXCLUDED.email, social_users.email),
			avatar_url    = EXCLUDED.avatar_url,
			updated_at    = now(),
			last_login_at = now()
		RETURNING `+socialUserColumns,
		id, p.Provider, p.ExternalID, p.Name, p.Email, p.AvatarURL,
	).Scan(&u.ID, &u.Provider, &u.ExternalID, &u.Name, &u.Email, &u.AvatarURL,
		&u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt)
	if err != nil {
		return nil, fmt.Errorf("upserting social user: %w", err)
	}
	return &u, nil
}
