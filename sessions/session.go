package sessions

import "time"

// Session is the immutable record of one authenticated principal and the
// validity window of its token. A new Session always replaces the previous
// one; fields are only readable through accessors.
type Session struct {
	email     string    // Provider supplied, not re-validated locally
	userID    string    // Provider's local id for the user
	token     string    // Opaque bearer credential (ID token)
	expiresAt time.Time // Token is valid while now < expiresAt
}

// New creates a Session.
func New(email, userID, token string, expiresAt time.Time) *Session {
	return &Session{
		email:     email,
		userID:    userID,
		token:     token,
		expiresAt: expiresAt,
	}
}

// NewWithDuration creates a Session that expires d after now.
func NewWithDuration(email, userID, token string, now time.Time, d time.Duration) *Session {
	return New(email, userID, token, now.Add(d))
}

func (s *Session) Email() string {
	return s.email
}

func (s *Session) UserID() string {
	return s.userID
}

// Token returns the raw bearer token regardless of expiry.
func (s *Session) Token() string {
	return s.token
}

func (s *Session) ExpiresAt() time.Time {
	return s.expiresAt
}

// Valid reports whether the token is still usable at now.
func (s *Session) Valid(now time.Time) bool {
	return s != nil && s.token != "" && now.Before(s.expiresAt)
}

// ValidToken returns the token only while the session is valid.
func (s *Session) ValidToken(now time.Time) (string, bool) {
	if !s.Valid(now) {
		return "", false
	}
	return s.token, true
}

// Remaining returns the time left before expiry, never negative.
func (s *Session) Remaining(now time.Time) time.Duration {
	remaining := s.expiresAt.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
