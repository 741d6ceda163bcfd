package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func newSessionService(env *testEnv) *SessionService {
	return &SessionService{
		Store:      env.store,
		Ledger:     env.ledger,
		CSRFSecret: []byte("test-csrf-secret"),
	}
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	sessions := newSessionService(env)
	ctx := context.Background()

	t.Run("establish copies identity and gets its own id", func(t *testing.T) {
		issued, err := env.issuer.IssueUserAccessToken(ctx, testUser(), 0)
		require.NoError(t, err)
		claims, err := env.verifier.VerifyUserAccessToken(ctx, issued.Token, nil)
		require.NoError(t, err)

		session, err := sessions.Establish(ctx, claims)
		require.NoError(t, err)

		require.NotEmpty(t, session.ID)
		require.NotEqual(t, claims.ID, session.ID)
		require.Equal(t, claims.ID, session.OriginTokenID)
		require.Equal(t, claims.Subject, session.UserID)
		require.Equal(t, claims.Email, session.Email)
		require.Equal(t, claims.BrandID, session.BrandID)
		require.Equal(t, claims.Permissions, session.Permissions)

		got, err := sessions.Get(ctx, session.ID)
		require.NoError(t, err)
		require.Equal(t, session.ID, got.ID)
	})

	t.Run("session outlives the token", func(t *testing.T) {
		issued, err := env.issuer.IssueUserAccessToken(ctx, testUser(), 0)
		require.NoError(t, err)
		claims, err := env.verifier.VerifyUserAccessToken(ctx, issued.Token, nil)
		require.NoError(t, err)

		session, err := sessions.Establish(ctx, claims)
		require.NoError(t, err)

		// Default session TTL is a day; the token expires in minutes.
		require.True(t, session.ExpiresAt.After(claims.ExpiresAt.Time))
	})

	t.Run("unknown session is not found", func(t *testing.T) {
		_, err := sessions.Get(ctx, "nope")
		require.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("terminate deletes the session and revokes the origin token", func(t *testing.T) {
		issued, err := env.issuer.IssueUserAccessToken(ctx, testUser(), 0)
		require.NoError(t, err)
		claims, err := env.verifier.VerifyUserAccessToken(ctx, issued.Token, nil)
		require.NoError(t, err)

		session, err := sessions.Establish(ctx, claims)
		require.NoError(t, err)

		require.NoError(t, sessions.Terminate(ctx, session.ID))

		_, err = sessions.Get(ctx, session.ID)
		require.ErrorIs(t, err, ErrSessionNotFound)

		// The token that minted the session is dead too; it cannot be
		// replayed into a fresh session.
		_, err = env.verifier.VerifyUserAccessToken(ctx, issued.Token, nil)
		require.ErrorIs(t, err, ErrRevoked)
	})

	t.Run("terminating an unknown session is not found", func(t *testing.T) {
		require.ErrorIs(t, sessions.Terminate(ctx, "nope"), ErrSessionNotFound)
	})
}

func TestCSRFDerivation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	sessions := newSessionService(env)
	ctx := context.Background()

	issued, err := env.issuer.IssueUserAccessToken(ctx, testUser(), 0)
	require.NoError(t, err)
	claims, err := env.verifier.VerifyUserAccessToken(ctx, issued.Token, nil)
	require.NoError(t, err)

	session, err := sessions.Establish(ctx, claims)
	require.NoError(t, err)

	t.Run("deterministic for the session lifetime", func(t *testing.T) {
		a := sessions.DeriveCSRF(session)
		b := sessions.DeriveCSRF(session)
		require.Equal(t, a, b)
		require.NotEmpty(t, a)
	})

	t.Run("verify accepts the derived token only", func(t *testing.T) {
		token := sessions.DeriveCSRF(session)
		require.NoError(t, sessions.VerifyCSRF(session, token))
		require.ErrorIs(t, sessions.VerifyCSRF(session, "forged"), ErrInvalidCSRF)
		require.ErrorIs(t, sessions.VerifyCSRF(session, ""), ErrInvalidCSRF)
	})

	t.Run("different secret derives a different token", func(t *testing.T) {
		other := &SessionService{Store: env.store, CSRFSecret: []byte("other-secret")}
		require.NotEqual(t, sessions.DeriveCSRF(session), other.DeriveCSRF(session))
	})
}
