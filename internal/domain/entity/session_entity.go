package entity

import "time"

// Session is a server-recorded credential used by the cookie-session
// strategy. Sessions are created by the external auth service at login
// and only read here; they expire implicitly through ExpiresAt.
type Session struct {
	ID        string
	UserID    string
	Token     string // opaque, unique system-wide
	ExpiresAt time.Time
	IPAddress string
	UserAgent string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Expired reports whether the session is past its expiration at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
