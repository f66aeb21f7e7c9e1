// Package memory is a process-local session store. Sessions are spread over
// a fixed number of shards by FNV-1a hash of the token so that concurrent
// requests on different tokens rarely contend on the same lock.
package memory

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wishlist/account-service/internal/core/domain"
)

const defaultShards = 32

type shard struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

// SessionStore implements ports.SessionStore in memory.
type SessionStore struct {
	shards []*shard
	now    func() time.Time
}

// NewSessionStore creates a store with numShards shards. If numShards <= 0,
// defaultShards is used.
func NewSessionStore(numShards int) *SessionStore {
	if numShards <= 0 {
		numShards = defaultShards
	}
	s := &SessionStore{
		shards: make([]*shard, numShards),
		now:    time.Now,
	}
	for i := range s.shards {
		s.shards[i] = &shard{sessions: make(map[string]domain.Session)}
	}
	return s
}

func (s *SessionStore) Insert(_ context.Context, session *domain.Session) error {
	sh := s.shardFor(session.Token)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, exists := sh.sessions[session.Token]; exists {
		return domain.ErrSessionExists
	}
	sh.sessions[session.Token] = *session
	return nil
}

func (s *SessionStore) Get(_ context.Context, token string) (*domain.Session, bool, error) {
	sh := s.shardFor(token)
	sh.mu.RLock()
	session, ok := sh.sessions[token]
	sh.mu.RUnlock()

	if !ok || session.Expired(s.now()) {
		return nil, false, nil
	}
	return &session, true, nil
}

func (s *SessionStore) Delete(_ context.Context, token string) (bool, error) {
	sh := s.shardFor(token)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	session, ok := sh.sessions[token]
	if !ok {
		return false, nil
	}
	delete(sh.sessions, token)
	return !session.Expired(s.now()), nil
}

// DeleteByUsername scans every shard. It runs only on account deletion and
// admin revocation, never on the request path of an ordinary call.
func (s *SessionStore) DeleteByUsername(_ context.Context, username string) (int, error) {
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for token, session := range sh.sessions {
			if session.Username == username {
				delete(sh.sessions, token)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed, nil
}

// Len returns the number of stored sessions, expired ones included.
func (s *SessionStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.sessions)
		sh.mu.RUnlock()
	}
	return n
}

// Sweep drops expired sessions and returns how many were removed.
func (s *SessionStore) Sweep() int {
	now := s.now()
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for token, session := range sh.sessions {
			if session.Expired(now) {
				delete(sh.sessions, token)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

// StartSweeper runs Sweep every interval until ctx is cancelled. Sessions
// without an expiry are never touched.
func (s *SessionStore) StartSweeper(ctx context.Context, interval time.Duration, log zerolog.Logger) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.Sweep(); n > 0 {
					log.Debug().Int("removed", n).Msg("expired sessions swept")
				}
			}
		}
	}()
}

func (s *SessionStore) shardFor(token string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}
