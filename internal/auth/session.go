package auth

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/models"
)

// SessionStore holds authenticated sessions in memory. Sessions are
// deliberately not persisted: a restart signs everyone out, accounts
// survive in the database. Safe for concurrent use from multiple requests.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore creates a store with the given session lifetime.
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionStore{
		sessions: make(map[string]*models.Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create mints a new session for the account and returns it.
func (s *SessionStore) Create(accountID string) *models.Session {
	b := make([]byte, 32)
	rand.Read(b)
	now := s.now()

	sess := &models.Session{
		ID:        hex.EncodeToString(b),
		AccountID: accountID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Get returns the session when it exists and has not expired. The returned
// session is a snapshot: Link may grow LinkedAccountIDs on the stored copy
// concurrently, so callers never see the live slice.
func (s *SessionStore) Get(id string) (*models.Session, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	if !ok || sess.Expired(s.now()) {
		s.mu.RUnlock()
		return nil, false
	}
	snapshot := *sess
	snapshot.LinkedAccountIDs = append([]string(nil), sess.LinkedAccountIDs...)
	s.mu.RUnlock()
	return &snapshot, true
}

// Link attaches an additional account identity to an existing session.
// Re-authenticating with a second provider links, never merges (the two
// accounts keep their own ids and repositories).
func (s *SessionStore) Link(sessionID, accountID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok || sess.Expired(s.now()) {
		return false
	}
	if sess.AccountID == accountID {
		return true
	}
	for _, id := range sess.LinkedAccountIDs {
		if id == accountID {
			return true
		}
	}
	sess.LinkedAccountIDs = append(sess.LinkedAccountIDs, accountID)
	return true
}

// Delete removes a session. Deleting an absent session is not an error.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Prune removes expired sessions; called from the gateway sweeper.
func (s *SessionStore) Prune() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}
