package store

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryUserStore is a map-backed UserStore safe for concurrent use.
type MemoryUserStore struct {
	mu      sync.RWMutex
	byID    map[string]User
	byEmail map[string]string
}

// NewMemoryUserStore creates an empty in-memory user store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byID:    make(map[string]User),
		byEmail: make(map[string]string),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *MemoryUserStore) Create(_ context.Context, user *User) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := normalizeEmail(user.Email)
	if _, exists := s.byEmail[key]; exists {
		return nil, ErrDuplicateEmail
	}
	s.byID[user.ID] = *user
	s.byEmail[key] = user.ID
	stored := *user
	return &stored, nil
}

func (s *MemoryUserStore) GetByID(_ context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (s *MemoryUserStore) GetByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	user := s.byID[id]
	return &user, nil
}

func (s *MemoryUserStore) Update(_ context.Context, user *User) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.byID[user.ID]
	if !ok {
		return nil, ErrNotFound
	}
	if prevKey, newKey := normalizeEmail(prev.Email), normalizeEmail(user.Email); prevKey != newKey {
		if _, exists := s.byEmail[newKey]; exists {
			return nil, ErrDuplicateEmail
		}
		delete(s.byEmail, prevKey)
		s.byEmail[newKey] = user.ID
	}
	s.byID[user.ID] = *user
	updated := *user
	return &updated, nil
}

func (s *MemoryUserStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.byEmail, normalizeEmail(user.Email))
	delete(s.byID, id)
	return nil
}

// MemoryTokenStore is a map-backed TokenStore safe for concurrent use.
type MemoryTokenStore struct {
	mu       sync.RWMutex
	byDigest map[string]RefreshTokenRecord
	now      func() time.Time
}

// NewMemoryTokenStore creates an empty in-memory token store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{
		byDigest: make(map[string]RefreshTokenRecord),
		now:      time.Now,
	}
}

func (s *MemoryTokenStore) Create(_ context.Context, record *RefreshTokenRecord) (*RefreshTokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byDigest[record.TokenDigest] = *record
	stored := *record
	return &stored, nil
}

func (s *MemoryTokenStore) FindUsable(_ context.Context, tokenDigest string) (*RefreshTokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.byDigest[tokenDigest]
	if !ok || record.Revoked || !record.ExpiresAt.After(s.now()) {
		return nil, ErrNotFound
	}
	return &record, nil
}

func (s *MemoryTokenStore) RevokeByDigest(_ context.Context, tokenDigest string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.byDigest[tokenDigest]
	if !ok {
		return nil
	}
	record.Revoked = true
	s.byDigest[tokenDigest] = record
	return nil
}

func (s *MemoryTokenStore) RevokeAllForUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for digest, record := range s.byDigest {
		if record.UserID == userID && !record.Revoked {
			record.Revoked = true
			s.byDigest[digest] = record
		}
	}
	return nil
}
