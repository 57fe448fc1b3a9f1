package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"sync"
	"time"
)

// stateTTL bounds how long a sign-in attempt may sit between the redirect
// and the callback.
const stateTTL = 10 * time.Minute

// attempt is one in-flight authorization-code flow, keyed by its state token.
type attempt struct {
	provider  string
	createdAt time.Time
}

// stateStore holds server-side CSRF state tokens. Tokens are single-use:
// Consume removes the attempt whether or not the caller succeeds afterwards.
type stateStore struct {
	mu       sync.Mutex
	attempts map[string]attempt
	now      func() time.Time
}

func newStateStore() *stateStore {
	return &stateStore{
		attempts: make(map[string]attempt),
		now:      time.Now,
	}
}

// Issue creates an unguessable state token bound to one sign-in attempt.
func (s *stateStore) Issue(provider string) string {
	b := make([]byte, 32)
	rand.Read(b)
	token := hex.EncodeToString(b)

	s.mu.Lock()
	s.attempts[token] = attempt{provider: provider, createdAt: s.now()}
	s.mu.Unlock()
	return token
}

// Consume validates and invalidates a state token. The comparison against
// stored tokens is constant-time; a token matches at most once.
func (s *stateStore) Consume(provider, token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for stored, att := range s.attempts {
		if subtle.ConstantTimeCompare([]byte(stored), []byte(token)) != 1 {
			continue
		}
		delete(s.attempts, stored)
		if att.provider != provider {
			return false
		}
		return s.now().Sub(att.createdAt) <= stateTTL
	}
	return false
}

// Prune drops expired attempts; called from the gateway sweeper.
func (s *stateStore) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for token, att := range s.attempts {
		if s.now().Sub(att.createdAt) > stateTTL {
			delete(s.attempts, token)
			n++
		}
	}
	return n
}
