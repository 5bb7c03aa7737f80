package repositories

import (
	"context"
	"sync"

	"github.com/desertthunder/swipe/internal/models"
)

// MemoryStore is a [models.TokenStore] that keeps credentials in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	creds map[models.Provider]models.Credential
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{creds: make(map[models.Provider]models.Credential)}
}

func (s *MemoryStore) Get(_ context.Context, p models.Provider) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.creds[p]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *MemoryStore) Put(_ context.Context, p models.Provider, c *models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds[p] = *c
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, p models.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.creds, p)
	return nil
}
