package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tradelane/gatehouse/internal/gatehouse/domain"
	"github.com/tradelane/gatehouse/internal/gatehouse/service"
	"github.com/tradelane/gatehouse/internal/gatehouse/store"
	"github.com/tradelane/gatehouse/internal/gatehouse/store/drivers/sqlite"
	"github.com/tradelane/gatehouse/pkg/cryptox"
	"github.com/tradelane/gatehouse/pkg/gatesdk"
	"github.com/tradelane/gatehouse/pkg/jwtx"
)

type testServer struct {
	ts        *httptest.Server
	sdk       *gatesdk.SDKClient
	store     store.Store
	issuer    *service.IssuerService
	verifier  *service.VerifierService
	ledger    *service.RevocationLedger
	directory *service.DirectoryService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	pemKey, err := cryptox.GenerateRSAKey(2048)
	require.NoError(t, err)
	signer, err := jwtx.NewSignerRS256("test-key", pemKey)
	require.NoError(t, err)

	keys := jwtx.NewKeySet()
	require.NoError(t, keys.AddSigner(signer))

	ledger := service.NewRevocationLedger(st)

	issuer := &service.IssuerService{
		Signer:    signer,
		Store:     st,
		Issuer:    "gatehouse-test",
		M2MIssuer: "brand-platform-m2m",
		BrandID:   "brand-portal",
	}
	verifier := &service.VerifierService{
		Verifier:  jwtx.NewVerifierRS256(keys, jwtx.VerifierOptions{}),
		Ledger:    ledger,
		M2MIssuer: "brand-platform-m2m",
	}
	sessions := &service.SessionService{
		Store:      st,
		Ledger:     ledger,
		CSRFSecret: []byte("test-csrf-secret"),
	}
	directory := &service.DirectoryService{Store: st}

	logger := slog.New(slog.DiscardHandler)
	router := NewRouter(keys, "test", st, logger)
	router.Issuer = issuer
	router.Verifier = verifier
	router.Ledger = ledger
	router.Sessions = sessions
	router.Directory = directory
	router.ApplyRoutes()

	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)

	return &testServer{
		ts:        ts,
		sdk:       gatesdk.NewSDKClient(ts.URL),
		store:     st,
		issuer:    issuer,
		verifier:  verifier,
		ledger:    ledger,
		directory: directory,
	}
}

func (s *testServer) createClient(t *testing.T, scopes []string) (clientID, secret string) {
	t.Helper()

	client, secret, err := s.directory.CreateClient(context.Background(), service.ClientInput{
		Name:   "test-service",
		Scopes: scopes,
	})
	require.NoError(t, err)
	return client.ID, secret
}

func (s *testServer) postForm(t *testing.T, path string, form url.Values, basicUser, basicPass string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, s.ts.URL+path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if basicUser != "" {
		req.SetBasicAuth(basicUser, basicPass)
	}

	resp, err := s.ts.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestTokenEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	ctx := context.Background()

	t.Run("client_credentials happy path", func(t *testing.T) {
		clientID, secret := srv.createClient(t, []string{"api:read", "api:write"})

		grant, err := srv.sdk.ClientCredentialsGrant(ctx, clientID, secret, []string{"api:read"})
		require.NoError(t, err)
		require.NotEmpty(t, grant.AccessToken)
		require.Equal(t, "Bearer", grant.TokenType)
		require.Equal(t, "api:read", grant.Scope)
		require.Positive(t, grant.ExpiresIn)
	})

	t.Run("credentials via basic auth also work", func(t *testing.T) {
		clientID, secret := srv.createClient(t, []string{"api:read"})

		resp := srv.postForm(t, "/v1/oauth2/token", url.Values{
			"grant_type": {"client_credentials"},
		}, clientID, secret)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("wrong secret is invalid_client", func(t *testing.T) {
		clientID, _ := srv.createClient(t, []string{"api:read"})

		_, err := srv.sdk.ClientCredentialsGrant(ctx, clientID, "wrong", nil)
		var oauthErr *gatesdk.OAuth2Error
		require.ErrorAs(t, err, &oauthErr)
		require.Equal(t, http.StatusUnauthorized, oauthErr.StatusCode)
		require.Equal(t, gatesdk.ErrorCodeInvalidClient, oauthErr.Code)
	})

	t.Run("no grantable scope is invalid_scope", func(t *testing.T) {
		clientID, secret := srv.createClient(t, []string{"api:read"})

		_, err := srv.sdk.ClientCredentialsGrant(ctx, clientID, secret, []string{"api:admin"})
		var oauthErr *gatesdk.OAuth2Error
		require.ErrorAs(t, err, &oauthErr)
		require.Equal(t, http.StatusBadRequest, oauthErr.StatusCode)
		require.Equal(t, gatesdk.ErrorCodeInvalidScope, oauthErr.Code)
	})

	t.Run("unknown grant type is rejected", func(t *testing.T) {
		resp := srv.postForm(t, "/v1/oauth2/token", url.Values{
			"grant_type": {"password"},
		}, "x", "y")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		body := decodeBody[gatesdk.ErrorResponse](t, resp)
		require.Equal(t, gatesdk.ErrorCodeUnsupportedGrantType, body.Error)
	})
}

func TestIntrospectEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	ctx := context.Background()
	clientID, secret := srv.createClient(t, []string{"api:read"})

	grant, err := srv.sdk.ClientCredentialsGrant(ctx, clientID, secret, nil)
	require.NoError(t, err)

	t.Run("live token is active", func(t *testing.T) {
		body, err := srv.sdk.Introspect(ctx, clientID, secret, grant.AccessToken)
		require.NoError(t, err)
		require.True(t, body.Active)
		require.Equal(t, clientID, body.ClientID)
		require.Equal(t, "api:read", body.Scope)
		require.NotEmpty(t, body.Jti)
	})

	t.Run("garbage token is inactive, nothing more", func(t *testing.T) {
		body, err := srv.sdk.Introspect(ctx, clientID, secret, "garbage")
		require.NoError(t, err)
		require.False(t, body.Active)
		require.Empty(t, body.Jti)
	})

	t.Run("revoked token is inactive", func(t *testing.T) {
		fresh, err := srv.sdk.ClientCredentialsGrant(ctx, clientID, secret, nil)
		require.NoError(t, err)

		require.NoError(t, srv.sdk.Revoke(ctx, clientID, secret, fresh.AccessToken))

		body, err := srv.sdk.Introspect(ctx, clientID, secret, fresh.AccessToken)
		require.NoError(t, err)
		require.False(t, body.Active)
	})

	t.Run("introspection requires client auth", func(t *testing.T) {
		_, err := srv.sdk.Introspect(ctx, "", "", grant.AccessToken)
		var oauthErr *gatesdk.OAuth2Error
		require.ErrorAs(t, err, &oauthErr)
		require.Equal(t, http.StatusUnauthorized, oauthErr.StatusCode)
	})
}

func TestRevokeEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	ctx := context.Background()

	t.Run("revoking another client's token is access_denied", func(t *testing.T) {
		ownerID, ownerSecret := srv.createClient(t, []string{"api:read"})
		attackerID, attackerSecret := srv.createClient(t, []string{"api:read"})

		grant, err := srv.sdk.ClientCredentialsGrant(ctx, ownerID, ownerSecret, nil)
		require.NoError(t, err)

		err = srv.sdk.Revoke(ctx, attackerID, attackerSecret, grant.AccessToken)
		var oauthErr *gatesdk.OAuth2Error
		require.ErrorAs(t, err, &oauthErr)
		require.Equal(t, http.StatusForbidden, oauthErr.StatusCode)
		require.Equal(t, gatesdk.ErrorCodeAccessDenied, oauthErr.Code)

		// The owner's token still works.
		_, err = srv.verifier.VerifyClientToken(ctx, grant.AccessToken)
		require.NoError(t, err)
	})

	t.Run("unparseable token is a successful no-op", func(t *testing.T) {
		clientID, secret := srv.createClient(t, []string{"api:read"})

		require.NoError(t, srv.sdk.Revoke(ctx, clientID, secret, "garbage"))
	})
}

func TestPlatformTokenEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	t.Run("mints a verifiable user token", func(t *testing.T) {
		payload, err := json.Marshal(gatesdk.PlatformTokenRequest{
			UserID:     "user-9",
			Email:      "bob@example.com",
			PlatformID: "platform-2",
		})
		require.NoError(t, err)

		resp, err := srv.ts.Client().Post(srv.ts.URL+"/v1/platform/token", "application/json", strings.NewReader(string(payload)))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody[gatesdk.PlatformTokenResponse](t, resp)
		require.NotEmpty(t, body.PlatformAccessToken)
		require.NotEmpty(t, body.TokenID)
		require.True(t, body.ExpiresAt.After(time.Now()))

		claims, err := srv.verifier.VerifyUserAccessToken(context.Background(), body.PlatformAccessToken, nil)
		require.NoError(t, err)
		require.Equal(t, "user-9", claims.Subject)
		require.Equal(t, body.TokenID, claims.ID)
	})

	t.Run("missing user id is invalid_request", func(t *testing.T) {
		resp, err := srv.ts.Client().Post(srv.ts.URL+"/v1/platform/token", "application/json", strings.NewReader(`{}`))
		require.NoError(t, err)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})
}

func mustGetClient(t *testing.T, srv *testServer, clientID string) domain.Client {
	t.Helper()

	client, err := srv.directory.GetClient(context.Background(), clientID)
	require.NoError(t, err)
	return client
}
