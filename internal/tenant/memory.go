package tenant

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store for tests and single-node development.
type MemoryStore struct {
	mu   sync.RWMutex
	orgs map[string]uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{orgs: make(map[string]uint64)}
}

func (s *MemoryStore) Get(_ context.Context, userID string) (uint64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	orgID, ok := s.orgs[userID]
	return orgID, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, userID string, orgID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orgs[userID] = orgID
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.orgs, userID)
	return nil
}
