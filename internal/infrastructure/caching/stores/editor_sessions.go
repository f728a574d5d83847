// Package stores provides the in-memory editor session store
package stores

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/AtRiskMedia/spotlight-go/internal/domain/entities/scene"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/caching/types"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/observability/logging"
)

var (
	ErrSessionLimit  = errors.New("editor session limit reached")
	ErrSessionExists = errors.New("editor session already exists")
)

// EditorSessionStore keeps editor sessions in process memory.
type EditorSessionStore struct {
	sessions    map[string]*types.EditorSession
	maxSessions int
	now         func() time.Time
	mu          sync.RWMutex
	logger      *logging.ChanneledLogger
}

// NewEditorSessionStore creates a store holding at most maxSessions
// sessions; zero or less means unlimited.
func NewEditorSessionStore(maxSessions int, logger *logging.ChanneledLogger) *EditorSessionStore {
	if logger != nil {
		logger.Session().Info("Initializing editor session store", "maxSessions", maxSessions)
	}
	return &EditorSessionStore{
		sessions:    make(map[string]*types.EditorSession),
		maxSessions: maxSessions,
		now:         time.Now,
		logger:      logger,
	}
}

// SetClock replaces the store's time source.
func (s *EditorSessionStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// Now returns the store's current time.
func (s *EditorSessionStore) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now()
}

// Create stores a new session holding sc.
func (s *EditorSessionStore) Create(id string, sc scene.Scene) (*types.EditorSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[id]; exists {
		return nil, ErrSessionExists
	}
	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		return nil, ErrSessionLimit
	}

	session := types.NewEditorSession(id, sc, s.now())
	s.sessions[id] = session

	if s.logger != nil {
		s.logger.Session().Debug("Cache operation", "operation", "create", "sessionId", logging.MaskSessionID(id), "size", len(s.sessions))
	}
	return session, nil
}

// Get returns the session with id.
func (s *EditorSessionStore) Get(id string) (*types.EditorSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	return session, ok
}

// Delete removes the session with id and reports whether it existed.
func (s *EditorSessionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	if s.logger != nil {
		s.logger.Session().Debug("Cache operation", "operation", "delete", "sessionId", logging.MaskSessionID(id), "size", len(s.sessions))
	}
	return true
}

// Count returns the number of live sessions.
func (s *EditorSessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// IDs returns the live session ids in sorted order.
func (s *EditorSessionStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// PurgeExpired removes sessions idle for longer than ttl and returns their ids.
func (s *EditorSessionStore) PurgeExpired(ttl time.Duration) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var expired []string
	for id, session := range s.sessions {
		if session.IdleSince(now) > ttl {
			expired = append(expired, id)
			delete(s.sessions, id)
		}
	}
	sort.Strings(expired)
	return expired
}
