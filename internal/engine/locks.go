package engine

import "sync"

// sessionLocks serializes work per session id: events of one session are
// read-modify-write over pending state and must run in arrival order, while
// unrelated sessions proceed concurrently. Locks are refcounted so the map
// does not grow with every session ever seen.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*lockEntry)}
}

func (s *sessionLocks) lock(sessionID string) {
	s.mu.Lock()
	entry, ok := s.locks[sessionID]
	if !ok {
		entry = &lockEntry{}
		s.locks[sessionID] = entry
	}
	entry.refs++
	s.mu.Unlock()

	entry.mu.Lock()
}

func (s *sessionLocks) unlock(sessionID string) {
	s.mu.Lock()
	entry := s.locks[sessionID]
	entry.refs--
	if entry.refs == 0 {
		delete(s.locks, sessionID)
	}
	s.mu.Unlock()

	entry.mu.Unlock()
}
