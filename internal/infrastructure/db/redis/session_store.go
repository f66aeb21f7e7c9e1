package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wishlist/account-service/internal/core/domain"
)

// Key layout:
//
//	session:<token>          hash of the session fields
//	user_sessions:<username> set of the user's live tokens
const (
	sessionKeyPrefix = "session:"
	userKeyPrefix    = "user_sessions:"
)

// insertScript creates the session hash only when the token is unused and
// indexes it under its username, in one atomic step.
var insertScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('HSET', KEYS[1], 'user_id', ARGV[1], 'username', ARGV[2], 'role', ARGV[3], 'issued_at', ARGV[4], 'expires_at', ARGV[5])
redis.call('SADD', KEYS[2], ARGV[7])
local ttl = tonumber(ARGV[6])
if ttl > 0 then
	redis.call('PEXPIRE', KEYS[1], ttl)
	redis.call('PEXPIRE', KEYS[2], ttl)
end
return 1
`)

// deleteScript removes one session and its index entry, returning 1 when the
// session existed.
var deleteScript = redis.NewScript(`
local username = redis.call('HGET', KEYS[1], 'username')
local removed = redis.call('DEL', KEYS[1])
if username then
	redis.call('SREM', ARGV[2] .. username, ARGV[1])
end
return removed
`)

// deleteUserScript drops every session indexed under a username together
// with the index itself. Running it as one script keeps a concurrent insert
// from landing between the lookup and the delete and losing its index entry.
var deleteUserScript = redis.NewScript(`
local tokens = redis.call('SMEMBERS', KEYS[1])
local removed = 0
for _, token in ipairs(tokens) do
	removed = removed + redis.call('DEL', ARGV[1] .. token)
end
redis.call('DEL', KEYS[1])
return removed
`)

type sessionRecord struct {
	UserID    int64  `redis:"user_id"`
	Username  string `redis:"username"`
	Role      string `redis:"role"`
	IssuedAt  int64  `redis:"issued_at"`
	ExpiresAt int64  `redis:"expires_at"`
}

// SessionStore implements ports.SessionStore on Redis so that sessions are
// shared by every replica of the service. Expiry is delegated to key TTLs.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func (s *SessionStore) Insert(ctx context.Context, session *domain.Session) error {
	var ttl int64
	var expiresAt int64
	if !session.ExpiresAt.IsZero() {
		ttl = time.Until(session.ExpiresAt).Milliseconds()
		if ttl <= 0 {
			ttl = 1
		}
		expiresAt = session.ExpiresAt.UnixMilli()
	}

	created, err := insertScript.Run(ctx, s.client,
		[]string{sessionKey(session.Token), userKey(session.Username)},
		session.UserID,
		session.Username,
		string(session.Role),
		session.IssuedAt.UnixMilli(),
		expiresAt,
		ttl,
		session.Token,
	).Int()
	if err != nil {
		return fmt.Errorf("session insert: %w", err)
	}
	if created == 0 {
		return domain.ErrSessionExists
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, token string) (*domain.Session, bool, error) {
	cmd := s.client.HGetAll(ctx, sessionKey(token))
	if err := cmd.Err(); err != nil {
		return nil, false, fmt.Errorf("session get: %w", err)
	}
	if len(cmd.Val()) == 0 {
		return nil, false, nil
	}

	var rec sessionRecord
	if err := cmd.Scan(&rec); err != nil {
		return nil, false, fmt.Errorf("session decode: %w", err)
	}
	role := domain.Role(rec.Role)
	if rec.Username == "" || !role.Valid() {
		return nil, false, nil
	}

	session := &domain.Session{
		Token:    token,
		UserID:   rec.UserID,
		Username: rec.Username,
		Role:     role,
		IssuedAt: time.UnixMilli(rec.IssuedAt).UTC(),
	}
	if rec.ExpiresAt > 0 {
		session.ExpiresAt = time.UnixMilli(rec.ExpiresAt).UTC()
	}
	return session, true, nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) (bool, error) {
	removed, err := deleteScript.Run(ctx, s.client,
		[]string{sessionKey(token)},
		token,
		userKeyPrefix,
	).Int()
	if err != nil {
		return false, fmt.Errorf("session delete: %w", err)
	}
	return removed == 1, nil
}

func (s *SessionStore) DeleteByUsername(ctx context.Context, username string) (int, error) {
	removed, err := deleteUserScript.Run(ctx, s.client,
		[]string{userKey(username)},
		sessionKeyPrefix,
	).Int()
	if err != nil {
		return 0, fmt.Errorf("session delete for user: %w", err)
	}
	return removed, nil
}

func sessionKey(token string) string { return sessionKeyPrefix + token }

func userKey(username string) string { return userKeyPrefix + username }
