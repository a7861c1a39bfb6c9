package session

import (
	"context"
	"sync"
	"time"

	"github.com/dkurbatov/learning_platform/internal/models"
)

// MemoryStore is a thread-safe in-memory Store for tests and local
// development.
type MemoryStore struct {
	mu   sync.Mutex
	recs map[string]*models.RefreshToken
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recs: make(map[string]*models.RefreshToken)}
}

func (s *MemoryStore) Save(_ context.Context, rec *models.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.recs[rec.TokenHash] = &cp
	return nil
}

func (s *MemoryStore) Find(_ context.Context, tokenHash string) (*models.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[tokenHash]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *MemoryStore) Rotate(_ context.Context, oldHash string, next *models.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.recs[oldHash]
	if !ok {
		return ErrNotFound
	}
	if old.Revoked || old.ExpiresAt < time.Now().Unix() {
		return ErrRevoked
	}
	old.Revoked = true
	cp := *next
	s.recs[next.TokenHash] = &cp
	return nil
}

func (s *MemoryStore) Revoke(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.recs[tokenHash]; ok {
		rec.Revoked = true
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recs, tokenHash)
	return nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().Unix()
	var n int64
	for hash, rec := range s.recs {
		if rec.ExpiresAt < now {
			delete(s.recs, hash)
			n++
		}
	}
	return n, nil
}
