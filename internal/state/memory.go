package state

import (
	"context"
	"sync"
	"time"

	"github.com/zanon-alive/taktchat-sub003/internal/models"
)

type pendingEntry struct {
	files     []models.FileItem
	expiresAt time.Time
}

type counterEntry struct {
	count     int
	expiresAt time.Time
}

// MemoryStore mirrors the Redis store for tests and single-instance runs.
// Expiry is checked lazily on read.
type MemoryStore struct {
	mu            sync.Mutex
	pending       map[string]pendingEntry
	counters      map[string]counterEntry
	pendingTTL    time.Duration
	counterWindow time.Duration
	now           func() time.Time
}

func NewMemoryStore(pendingTTL, counterWindow time.Duration) *MemoryStore {
	return &MemoryStore{
		pending:       make(map[string]pendingEntry),
		counters:      make(map[string]counterEntry),
		pendingTTL:    pendingTTL,
		counterWindow: counterWindow,
		now:           time.Now,
	}
}

func (s *MemoryStore) GetPending(_ context.Context, sessionID string) ([]models.FileItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.pending[sessionID]
	if !ok {
		return nil, nil
	}
	if s.now().After(entry.expiresAt) {
		delete(s.pending, sessionID)
		return nil, nil
	}

	files := make([]models.FileItem, len(entry.files))
	copy(files, entry.files)
	return files, nil
}

func (s *MemoryStore) PutPending(_ context.Context, sessionID string, files []models.FileItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]models.FileItem, len(files))
	copy(stored, files)
	s.pending[sessionID] = pendingEntry{
		files:     stored,
		expiresAt: s.now().Add(s.pendingTTL),
	}
	return nil
}

func (s *MemoryStore) DeletePending(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pending, sessionID)
	return nil
}

func (s *MemoryStore) FilesSent(_ context.Context, sessionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.counters[sessionID]
	if !ok {
		return 0, nil
	}
	if s.now().After(entry.expiresAt) {
		delete(s.counters, sessionID)
		return 0, nil
	}
	return entry.count, nil
}

func (s *MemoryStore) AddFilesSent(_ context.Context, sessionID string, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.counters[sessionID]
	if !ok || s.now().After(entry.expiresAt) {
		entry = counterEntry{expiresAt: s.now().Add(s.counterWindow)}
	}
	entry.count += n
	s.counters[sessionID] = entry
	return nil
}
