package identity

import (
	"context"
	"sync"
	"time"

	"consentmgr/pkg/platform/sentinel"
	"consentmgr/pkg/requestcontext"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore keeps identifiers in process memory. Expiry is evaluated
// against requestcontext.Now so tests can move time.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok || expired(e.expiresAt, requestcontext.Now(ctx)) {
		return "", sentinel.ErrNotFound
	}
	return e.value, nil
}

func (s *MemoryStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{value: value, expiresAt: expiryFrom(requestcontext.Now(ctx), ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// expiryFrom returns the zero time for ttl <= 0 (no expiry).
func expiryFrom(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

func expired(expiresAt, now time.Time) bool {
	return !expiresAt.IsZero() && !now.Before(expiresAt)
}
