package cache

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/naveenkrish13/Fyers-OAuth-Token-Retrival/internal/domain/oauth"
	"github.com/naveenkrish13/Fyers-OAuth-Token-Retrival/internal/repository"
)

const secretBytes = 32

// MemoryStateStore implements StateStore with a mutex-guarded in-process
// table. Pending logins deliberately do not survive a restart: a login
// round-trip lasts minutes at most.
type MemoryStateStore struct {
	mu         sync.Mutex
	states     map[string]oauth.PendingState
	ttl        time.Duration
	maxPending int
	now        func() time.Time
}

var _ repository.StateStore = (*MemoryStateStore)(nil)

// NewMemoryStateStore constructs the store. ttl bounds how long an abandoned
// login occupies the table; maxPending caps the table size against logins
// that are started but never completed.
func NewMemoryStateStore(ttl time.Duration, maxPending int) *MemoryStateStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if maxPending <= 0 {
		maxPending = 1000
	}
	return &MemoryStateStore{
		states:     make(map[string]oauth.PendingState),
		ttl:        ttl,
		maxPending: maxPending,
		now:        time.Now,
	}
}

// Issue registers a new pending login. The identifier is public (used only
// for lookup) and the secret is an independent 32-byte random value, so a
// lookup never leaks anything about the secret comparison.
func (s *MemoryStateStore) Issue(_ context.Context) (string, string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate state secret: %w", err)
	}
	stateID := uuid.NewString()
	secret := base64.RawURLEncoding.EncodeToString(buf)

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweepLocked(now)
	s.states[stateID] = oauth.PendingState{Secret: secret, CreatedAt: now}
	return stateID, secret, nil
}

// Consume looks up, compares, and removes the pending state. Removal happens
// regardless of the comparison outcome so that a state can be presented at
// most once.
func (s *MemoryStateStore) Consume(_ context.Context, stateID, secret string) error {
	s.mu.Lock()
	pending, ok := s.states[stateID]
	if ok {
		delete(s.states, stateID)
	}
	s.mu.Unlock()

	if !ok {
		return oauth.ErrStateNotFound
	}
	if subtle.ConstantTimeCompare([]byte(pending.Secret), []byte(secret)) != 1 {
		return oauth.ErrStateMismatch
	}
	return nil
}

// Len reports the number of pending logins.
func (s *MemoryStateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}

// sweepLocked evicts expired entries, then the oldest entries while the
// table is over capacity. Callers hold s.mu.
func (s *MemoryStateStore) sweepLocked(now time.Time) {
	for id, pending := range s.states {
		if now.Sub(pending.CreatedAt) > s.ttl {
			delete(s.states, id)
		}
	}
	for len(s.states) >= s.maxPending {
		oldestID := ""
		var oldest time.Time
		for id, pending := range s.states {
			if oldestID == "" || pending.CreatedAt.Before(oldest) {
				oldestID = id
				oldest = pending.CreatedAt
			}
		}
		delete(s.states, oldestID)
	}
}
