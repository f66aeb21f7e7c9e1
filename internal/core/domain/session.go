package domain

import "time"

// Session binds an issued token to the identity and role it was issued for.
// The role is captured at issuance and never refreshed from the directory.
type Session struct {
	Token    string
	UserID   int64
	Username string
	Role     Role
	IssuedAt time.Time
	// ExpiresAt is zero for sessions that live until explicitly invalidated.
	ExpiresAt time.Time
}

// Expired reports whether the session has passed its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

func (s *Session) Principal() Principal {
	return Principal{UserID: s.UserID, Username: s.Username, Role: s.Role}
}

// Principal is the caller identity a token resolves to.
type Principal struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// SessionEventType names a step in a session's lifecycle.
type SessionEventType string

const (
	EventLogin           SessionEventType = "login"
	EventLoginFailed     SessionEventType = "login_failed"
	EventLogout          SessionEventType = "logout"
	EventPasswordChanged SessionEventType = "password_changed"
	EventAccountDeleted  SessionEventType = "account_deleted"
	EventSessionsRevoked SessionEventType = "sessions_revoked"
)

// SessionEvent is an entry in the session audit trail.
type SessionEvent struct {
	Type     SessionEventType
	Username string
	// Actor is the user that triggered the event when it differs from Username
	// (an admin revoking another user's sessions).
	Actor     string
	Timestamp time.Time
}
