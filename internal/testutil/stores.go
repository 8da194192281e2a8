// stores.go
//
// Shared mock implementations of auth.Store and auth.PendingStore.
// Imported by test files across packages to avoid duplicate mock definitions.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/MGallo-Code/pawlink/internal/oauth"
	"github.com/MGallo-Code/pawlink/internal/store"
	"github.com/gofrs/uuid/v5"
)

// MockStore implements auth.Store for tests.
// Always stateful...Users is a map keyed by "provider:external_id", like the unique index.
// Use *Err fields to inject errors for specific operations.
type MockStore struct {
	// Error injection; zero value means no error
	UpsertErr error
	HealthErr error

	Users map[string]*store.SocialUser

	mu sync.Mutex
}

// NewMockStore returns an empty MockStore ready for use.
func NewMockStore() *MockStore {
	return &MockStore{Users: make(map[string]*store.SocialUser)}
}

func (m *MockStore) UpsertSocialUser(_ context.Context, id uuid.UUID, p *oauth.Profile) (*store.SocialUser, error) {
	if m.UpsertErr != nil {
		return nil, m.UpsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := p.Provider + ":" + p.ExternalID
	now := time.Now()
	u, ok := m.Users[key]
	if !ok {
		u = &store.SocialUser{ID: id, Provider: p.Provider, ExternalID: p.ExternalID, CreatedAt: now}
		m.Users[key] = u
	}
	u.Name = p.Name
	if p.Email != nil {
		u.Email = p.Email
	}
	u.AvatarURL = p.AvatarURL
	u.UpdatedAt = now
	u.LastLoginAt = now

	cp := *u
	return &cp, nil
}

func (m *MockStore) CheckHealth(_ context.Context) error {
	return m.HealthErr
}

// User returns the stored user for a provider account, or nil.
func (m *MockStore) User(provider, externalID string) *store.SocialUser {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Users[provider+":"+externalID]
}

// MockPendingStore implements auth.PendingStore for tests.
// TakePending deletes what it returns, like GETDEL. No TTL.
type MockPendingStore struct {
	SaveErr   error
	TakeErr   error
	HealthErr error

	Pending map[string]*oauth.AuthorizationRequest // keyed by state

	mu sync.Mutex
}

// NewMockPendingStore returns an empty MockPendingStore ready for use.
func NewMockPendingStore() *MockPendingStore {
	return &MockPendingStore{Pending: make(map[string]*oauth.AuthorizationRequest)}
}

func (m *MockPendingStore) SavePending(_ context.Context, req *oauth.AuthorizationRequest) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Pending[req.State]; ok {
		return store.ErrPendingExists
	}
	cp := *req
	m.Pending[req.State] = &cp
	return nil
}

func (m *MockPendingStore) TakePending(_ context.Context, state string) (*oauth.AuthorizationRequest, error) {
	if m.TakeErr != nil {
		return nil, m.TakeErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.Pending[state]
	if !ok {
		return nil, store.ErrPendingNotFound
	}
	delete(m.Pending, state)
	return req, nil
}

func (m *MockPendingStore) CheckHealth(_ context.Context) error {
	return m.HealthErr
}

// Only returns the single pending request, for tests that started exactly one sign-in.
func (m *MockPendingStore) Only() *oauth.AuthorizationRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Pending) != 1 {
		return nil
	}
	for _, req := range m.Pending {
		return req
	}
	return nil
}
