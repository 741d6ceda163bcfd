package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tradelane/gatehouse/internal/gatehouse/domain"
	"github.com/tradelane/gatehouse/internal/gatehouse/store"
	"github.com/tradelane/gatehouse/pkg/jwtx"
	"github.com/tradelane/gatehouse/pkg/slogx"
)

var (
	ErrMissingUserID = errors.New("user id is required")
	ErrNoValidScope  = errors.New("no valid scope")
)

// DefaultPermissions are granted to user tokens when the caller supplies none.
var DefaultPermissions = []string{"trading", "view_history"}

// IssuedUserToken is what the platform issuance endpoint returns.
type IssuedUserToken struct {
	Token     string
	TokenID   string
	ExpiresAt time.Time
}

// IssuerService mints both token flavors. A nil Signer means the deployment
// is verify-only; constructors reject that before any issuance path exists.
type IssuerService struct {
	Signer *jwtx.Signer
	Store  store.Store

	Issuer    string // issuer for user access tokens
	M2MIssuer string // issuer for client_credentials tokens
	BrandID   string // default brand when the caller supplies none

	UserTokenTTL    time.Duration // default TTL for user tokens
	MaxUserTokenTTL time.Duration // requested expiries are clamped to this
	MachineTokenTTL time.Duration // fixed TTL for client_credentials tokens
}

func (s *IssuerService) userTTL(requested time.Duration) time.Duration {
	ttl := s.UserTokenTTL
	if ttl <= 0 {
		ttl = jwtx.DefaultUserTokenTTL
	}
	if requested > 0 {
		ttl = requested
	}
	if max := s.MaxUserTokenTTL; max > 0 && ttl > max {
		ttl = max
	}
	return ttl
}

// IssueUserAccessToken mints a platform access token for an already
// authenticated user. Identity verification happened upstream; this service
// only vouches for it.
func (s *IssuerService) IssueUserAccessToken(
	ctx context.Context,
	user domain.AuthenticatedUser,
	expiresIn time.Duration,
) (IssuedUserToken, error) {
	l := slogx.FromContext(ctx)

	if user.ID == "" {
		return IssuedUserToken{}, ErrMissingUserID
	}

	now := time.Now()
	ttl := s.userTTL(expiresIn)

	permissions := user.Permissions
	if len(permissions) == 0 {
		permissions = DefaultPermissions
	}
	brandID := user.BrandID
	if brandID == "" {
		brandID = s.BrandID
	}

	jti := jwtx.NewJTI()

	claims := jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   user.ID,
			Issuer:    s.Issuer,
			Audience:  jwt.ClaimStrings{jwtx.AudiencePlatform},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Nonce:       jwtx.NewNonce(),
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		BrandID:     brandID,
		PlatformID:  user.PlatformID,
		WalletID:    user.WalletID,
		Permissions: permissions,
	}

	token, err := s.Signer.Sign(claims)
	if err != nil {
		l.Error("failed to sign user access token", "error", err)
		return IssuedUserToken{}, err
	}

	s.recordIssuance(ctx, domain.IssuedToken{
		ID:        jti,
		Kind:      "user_access",
		Subject:   user.ID,
		BrandID:   brandID,
		Scopes:    permissions,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	})

	l.Info("issued user access token",
		slog.String("user_id", user.ID),
		slog.String("token_id", jti),
		slog.String("brand_id", brandID),
	)

	return IssuedUserToken{
		Token:     token,
		TokenID:   jti,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// IssueClientCredentialsToken mints a machine token for an authenticated
// client. The granted scope is the intersection of what was requested and
// what the client is allowed; an empty intersection is a hard failure.
func (s *IssuerService) IssueClientCredentialsToken(
	ctx context.Context,
	client domain.Client,
	requestedScopes []string,
) (domain.TokenGrant, error) {
	l := slogx.FromContext(ctx)

	granted := grantedScopes(client, requestedScopes)
	if len(granted) == 0 {
		return domain.TokenGrant{}, ErrNoValidScope
	}

	now := time.Now()
	ttl := s.MachineTokenTTL
	if ttl <= 0 {
		ttl = jwtx.DefaultMachineTokenTTL
	}

	jti := jwtx.NewJTI()

	claims := jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   client.ID,
			Issuer:    s.M2MIssuer,
			Audience:  jwt.ClaimStrings{jwtx.AudienceAPI},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Nonce:      jwtx.NewNonce(),
		ClientID:   client.ID,
		ClientName: client.Name,
		Scope:      joinSpaceDelimited(granted),
	}

	token, err := s.Signer.Sign(claims)
	if err != nil {
		l.Error("failed to sign client token", "error", err, "client_id", client.ID)
		return domain.TokenGrant{}, err
	}

	s.recordIssuance(ctx, domain.IssuedToken{
		ID:        jti,
		Kind:      "client_credentials",
		Subject:   client.ID,
		ClientID:  client.ID,
		Scopes:    granted,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	})

	l.Info("issued client credentials token",
		slog.String("client_id", client.ID),
		slog.String("token_id", jti),
		slog.String("scope", joinSpaceDelimited(granted)),
	)

	return domain.TokenGrant{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   ttl,
		Scope:       joinSpaceDelimited(granted),
	}, nil
}

// recordIssuance persists the ledger record best-effort. A token holder must
// not be punished for a bookkeeping failure, so errors are logged and the
// issuance still succeeds.
func (s *IssuerService) recordIssuance(ctx context.Context, rec domain.IssuedToken) {
	if s.Store == nil {
		return
	}
	if err := s.Store.IssuedTokens().CreateIssuedToken(ctx, rec); err != nil {
		slogx.FromContext(ctx).Warn("failed to record token issuance",
			"error", err, "token_id", rec.ID)
	}
}
