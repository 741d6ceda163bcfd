package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tradelane/gatehouse/internal/gatehouse/domain"
)

func TestIssueUserAccessToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("roundtrip preserves identity claims", func(t *testing.T) {
		user := testUser()
		user.Permissions = []string{"trading"}

		issued, err := env.issuer.IssueUserAccessToken(ctx, user, 0)
		require.NoError(t, err)
		require.NotEmpty(t, issued.Token)
		require.NotEmpty(t, issued.TokenID)
		require.True(t, issued.ExpiresAt.After(time.Now()))

		claims, err := env.verifier.VerifyUserAccessToken(ctx, issued.Token, nil)
		require.NoError(t, err)
		require.Equal(t, user.ID, claims.Subject)
		require.Equal(t, user.Email, claims.Email)
		require.Equal(t, user.BrandID, claims.BrandID)
		require.Equal(t, user.PlatformID, claims.PlatformID)
		require.Equal(t, user.WalletID, claims.WalletID)
		require.Equal(t, []string{"trading"}, claims.Permissions)
		require.Equal(t, issued.TokenID, claims.ID)
		require.NotEmpty(t, claims.Nonce)
	})

	t.Run("missing user id is rejected", func(t *testing.T) {
		_, err := env.issuer.IssueUserAccessToken(ctx, domain.AuthenticatedUser{}, 0)
		require.ErrorIs(t, err, ErrMissingUserID)
	})

	t.Run("defaults permissions when none supplied", func(t *testing.T) {
		issued, err := env.issuer.IssueUserAccessToken(ctx, testUser(), 0)
		require.NoError(t, err)

		claims, err := env.verifier.VerifyUserAccessToken(ctx, issued.Token, nil)
		require.NoError(t, err)
		require.Equal(t, DefaultPermissions, claims.Permissions)
	})

	t.Run("defaults brand when none supplied", func(t *testing.T) {
		user := testUser()
		user.BrandID = ""

		issued, err := env.issuer.IssueUserAccessToken(ctx, user, 0)
		require.NoError(t, err)

		claims, err := env.verifier.VerifyUserAccessToken(ctx, issued.Token, nil)
		require.NoError(t, err)
		require.Equal(t, testBrand, claims.BrandID)
	})

	t.Run("requested expiry is clamped to the configured max", func(t *testing.T) {
		clamped := &IssuerService{
			Signer:          env.signer,
			Store:           env.store,
			Issuer:          testIssuer,
			BrandID:         testBrand,
			MaxUserTokenTTL: 30 * time.Minute,
		}

		issued, err := clamped.IssueUserAccessToken(ctx, testUser(), 6*time.Hour)
		require.NoError(t, err)
		require.WithinDuration(t, time.Now().Add(30*time.Minute), issued.ExpiresAt, 5*time.Second)
	})

	t.Run("expires_at is after issuance", func(t *testing.T) {
		issued, err := env.issuer.IssueUserAccessToken(ctx, testUser(), 0)
		require.NoError(t, err)

		claims, err := env.verifier.VerifyUserAccessToken(ctx, issued.Token, nil)
		require.NoError(t, err)
		require.True(t, claims.ExpiresAt.After(claims.IssuedAt.Time))
	})

	t.Run("every token gets a fresh jti and nonce", func(t *testing.T) {
		a, err := env.issuer.IssueUserAccessToken(ctx, testUser(), 0)
		require.NoError(t, err)
		b, err := env.issuer.IssueUserAccessToken(ctx, testUser(), 0)
		require.NoError(t, err)

		require.NotEqual(t, a.TokenID, b.TokenID)

		ca, err := env.verifier.VerifyUserAccessToken(ctx, a.Token, nil)
		require.NoError(t, err)
		cb, err := env.verifier.VerifyUserAccessToken(ctx, b.Token, nil)
		require.NoError(t, err)
		require.NotEqual(t, ca.Nonce, cb.Nonce)
	})
}

func TestIssueClientCredentialsToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("grants the intersection of requested and allowed", func(t *testing.T) {
		client := env.createClient(t, []string{"api:read", "api:write"})

		grant, err := env.issuer.IssueClientCredentialsToken(ctx, client, []string{"api:read", "api:admin"})
		require.NoError(t, err)
		require.Equal(t, "api:read", grant.Scope)
		require.Equal(t, "Bearer", grant.TokenType)

		claims, err := env.verifier.VerifyClientToken(ctx, grant.AccessToken)
		require.NoError(t, err)
		require.Equal(t, client.ID, claims.ClientID)
		require.Equal(t, client.Name, claims.ClientName)
		require.Equal(t, testM2MIssuer, claims.Issuer)
	})

	t.Run("empty intersection is ErrNoValidScope", func(t *testing.T) {
		client := env.createClient(t, []string{"api:read"})

		_, err := env.issuer.IssueClientCredentialsToken(ctx, client, []string{"api:admin"})
		require.ErrorIs(t, err, ErrNoValidScope)
	})

	t.Run("no requested scope grants everything allowed", func(t *testing.T) {
		client := env.createClient(t, []string{"api:read", "api:write"})

		grant, err := env.issuer.IssueClientCredentialsToken(ctx, client, nil)
		require.NoError(t, err)
		require.Equal(t, "api:read api:write", grant.Scope)
	})

	t.Run("client with no scopes cannot be granted anything", func(t *testing.T) {
		client := env.createClient(t, nil)

		_, err := env.issuer.IssueClientCredentialsToken(ctx, client, nil)
		require.ErrorIs(t, err, ErrNoValidScope)
	})

	t.Run("issuance is recorded in the ledger store", func(t *testing.T) {
		client := env.createClient(t, []string{"api:read"})

		grant, err := env.issuer.IssueClientCredentialsToken(ctx, client, nil)
		require.NoError(t, err)

		claims, err := env.verifier.VerifyClientToken(ctx, grant.AccessToken)
		require.NoError(t, err)

		rec, err := env.store.IssuedTokens().GetIssuedTokenByID(ctx, claims.ID)
		require.NoError(t, err)
		require.Equal(t, "client_credentials", rec.Kind)
		require.Equal(t, client.ID, rec.ClientID)
		require.False(t, rec.Revoked)
	})
}

func TestGrantedScopes(t *testing.T) {
	t.Parallel()

	client := domain.Client{Scopes: []string{"a", "b"}}

	t.Run("preserves requested order, drops duplicates", func(t *testing.T) {
		got := grantedScopes(client, []string{"b", "a", "b", "c"})
		require.Equal(t, []string{"b", "a"}, got)
	})

	t.Run("empty on no overlap", func(t *testing.T) {
		require.Empty(t, grantedScopes(client, []string{"x"}))
	})

	t.Run("nothing requested grants everything allowed", func(t *testing.T) {
		require.Equal(t, []string{"a", "b"}, grantedScopes(client, nil))
	})
}
