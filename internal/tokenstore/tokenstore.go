// Package tokenstore persists the access/refresh token pair. The Store
// interface is the secure-storage capability boundary: platforms with a
// keychain provide their own implementation, FileStore is the default.
package tokenstore

import "sync"

// Tokens is the persisted token pair. Zero value means signed out.
type Tokens struct {
	Access  string `json:"access_token"`
	Refresh string `json:"refresh_token"`
}

// Store persists and retrieves the token pair.
type Store interface {
	Load() (Tokens, error)
	Save(Tokens) error
	Clear() error
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	mu sync.Mutex
	t  Tokens
}

func NewMemStore() *MemStore { return &MemStore{} }

func (m *MemStore) Load() (Tokens, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.t, nil
}

func (m *MemStore) Save(t Tokens) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.t = t
	return nil
}

func (m *MemStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.t = Tokens{}
	return nil
}
