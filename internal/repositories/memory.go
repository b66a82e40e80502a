package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/moodring/internal/models"
)

// MemoryCredentialStore is an in-process [CredentialStore].
type MemoryCredentialStore struct {
	mu      sync.RWMutex
	records map[string]models.LinkedCredential
}

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{records: make(map[string]models.LinkedCredential)}
}

func (s *MemoryCredentialStore) Save(_ context.Context, cred *models.LinkedCredential) error {
	if err := cred.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[cred.OwnerID] = copyCredential(*cred)
	return nil
}

func (s *MemoryCredentialStore) Get(_ context.Context, ownerID string) (*models.LinkedCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.records[ownerID]
	if !ok {
		return nil, notFound(ownerID)
	}
	out := copyCredential(cred)
	return &out, nil
}

func (s *MemoryCredentialStore) Update(_ context.Context, ownerID string, patch models.CredentialPatch) error {
	if err := validatePatch(patch); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.records[ownerID]
	if !ok || cred.DeletedAt != nil {
		return notFound(ownerID)
	}
	cred.AccessToken = patch.AccessToken
	cred.ExpiresAt = patch.ExpiresAt
	cred.UpdatedAt = patch.UpdatedAt
	s.records[ownerID] = cred
	return nil
}

func (s *MemoryCredentialStore) Invalidate(_ context.Context, ownerID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.records[ownerID]
	if !ok {
		return notFound(ownerID)
	}
	cred.AccessToken = ""
	cred.RefreshToken = ""
	cred.UpdatedAt = at
	cred.DeletedAt = &at
	s.records[ownerID] = cred
	return nil
}

// Len reports how many records exist, deleted ones included.
func (s *MemoryCredentialStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func copyCredential(c models.LinkedCredential) models.LinkedCredential {
	if c.DeletedAt != nil {
		at := *c.DeletedAt
		c.DeletedAt = &at
	}
	return c
}
