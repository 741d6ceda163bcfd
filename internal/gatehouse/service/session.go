package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/tradelane/gatehouse/internal/gatehouse/domain"
	"github.com/tradelane/gatehouse/internal/gatehouse/store"
	"github.com/tradelane/gatehouse/pkg/idx"
	"github.com/tradelane/gatehouse/pkg/jwtx"
	"github.com/tradelane/gatehouse/pkg/slogx"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidCSRF     = errors.New("invalid csrf token")
)

// DefaultSessionTTL is deliberately independent of the access token TTL:
// the token may expire minutes after login while the session lives on.
const DefaultSessionTTL = 24 * time.Hour

// SessionService exchanges a verified user access token for a server-side
// session and manages its lifecycle.
type SessionService struct {
	Store      store.Store
	Ledger     *RevocationLedger
	SessionTTL time.Duration
	CSRFSecret []byte
}

func (s *SessionService) ttl() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return DefaultSessionTTL
}

// Establish creates a session from already-verified user token claims. The
// caller is responsible for having run full verification first; this method
// trusts its input. The session gets a fresh ULID, never the token's jti.
func (s *SessionService) Establish(ctx context.Context, claims jwtx.Claims) (domain.Session, error) {
	l := slogx.FromContext(ctx)

	now := time.Now()
	session := domain.Session{
		ID:            idx.New().String(),
		OriginTokenID: claims.ID,
		UserID:        claims.Subject,
		Email:         claims.Email,
		FirstName:     claims.FirstName,
		LastName:      claims.LastName,
		BrandID:       claims.BrandID,
		PlatformID:    claims.PlatformID,
		WalletID:      claims.WalletID,
		Permissions:   claims.Permissions,
		ExpiresAt:     now.Add(s.ttl()),
		CreatedAt:     now,
	}

	if err := s.Store.Sessions().CreateSession(ctx, session); err != nil {
		l.Error("failed to create session", "error", err, "user_id", claims.Subject)
		return domain.Session{}, err
	}

	l.Info("session established",
		slog.String("session_id", session.ID),
		slog.String("user_id", session.UserID),
		slog.String("origin_token_id", session.OriginTokenID),
	)
	return session, nil
}

// Get returns a live session. Expired or unknown sessions are both
// ErrSessionNotFound; callers cannot tell the difference and should not.
func (s *SessionService) Get(ctx context.Context, sessionID string) (domain.Session, error) {
	session, err := s.Store.Sessions().GetSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Session{}, ErrSessionNotFound
		}
		return domain.Session{}, err
	}
	if session.Expired(time.Now()) {
		return domain.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// Terminate deletes the session and always revokes the origin token, so a
// logged-out user cannot re-establish a session by replaying the token that
// minted it.
func (s *SessionService) Terminate(ctx context.Context, sessionID string) error {
	l := slogx.FromContext(ctx)

	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	if err := s.Store.Sessions().DeleteSession(ctx, session.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}

	if s.Ledger != nil && session.OriginTokenID != "" {
		if err := s.Ledger.Revoke(ctx, session.OriginTokenID, 0); err != nil {
			l.Error("failed to revoke origin token on logout",
				"error", err, "token_id", session.OriginTokenID)
			return err
		}
	}

	l.Info("session terminated",
		slog.String("session_id", session.ID),
		slog.String("origin_token_id", session.OriginTokenID),
	)
	return nil
}

// DeriveCSRF returns the CSRF token for a session. It is deterministic for
// the session's lifetime so clients can cache it.
func (s *SessionService) DeriveCSRF(session domain.Session) string {
	mac := hmac.New(sha256.New, s.CSRFSecret)
	mac.Write([]byte(session.ID + session.UserID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyCSRF checks a presented CSRF token in constant time.
func (s *SessionService) VerifyCSRF(session domain.Session, presented string) error {
	expected := s.DeriveCSRF(session)
	if !hmac.Equal([]byte(expected), []byte(presented)) {
		return ErrInvalidCSRF
	}
	return nil
}
