package domain

import "time"

// Session is a server-side login session established from a verified user
// access token. Sessions live independently of the originating token: the
// token may expire while the session remains valid.
type Session struct {
	ID            string // ULID, distinct from any token jti
	OriginTokenID string // jti of the access token the session was minted from
	UserID        string
	Email         string
	FirstName     string
	LastName      string
	BrandID       string
	PlatformID    string
	WalletID      string
	Permissions   []string
	ExpiresAt     time.Time
	CreatedAt     time.Time
}

// Expired reports whether the session has passed its expiry.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
