package otp

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	code     string
	issuedAt time.Time
	misses   int
}

// MemoryStore keeps codes in process memory. Suitable for a single instance.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
	}
}

func (s *MemoryStore) Put(ctx context.Context, phone, code string, issuedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[phone] = memoryEntry{code: code, issuedAt: issuedAt}
	return nil
}

func (s *MemoryStore) TakeIfValid(ctx context.Context, phone, code string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[phone]
	if !ok {
		return false, nil
	}
	if expired(e.issuedAt, now, s.ttl) {
		delete(s.entries, phone)
		return false, nil
	}
	if e.code != code {
		e.misses++
		if e.misses >= MaxFailedAttempts {
			delete(s.entries, phone)
		} else {
			s.entries[phone] = e
		}
		return false, nil
	}
	delete(s.entries, phone)
	return true, nil
}

func (s *MemoryStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for phone, e := range s.entries {
		if expired(e.issuedAt, now, s.ttl) {
			delete(s.entries, phone)
			n++
		}
	}
	return n, nil
}
