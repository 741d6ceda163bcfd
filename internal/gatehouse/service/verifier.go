package service

import (
	"context"
	"errors"

	"github.com/tradelane/gatehouse/pkg/jwtx"
	"github.com/tradelane/gatehouse/pkg/slogx"
)

// Verification failures are terminal. A token that fails any of these checks
// is rejected outright; there is no retry or partial acceptance.
var (
	ErrMalformedToken          = errors.New("malformed token")
	ErrInvalidSignature        = errors.New("invalid token signature")
	ErrTokenExpired            = errors.New("token expired")
	ErrAudienceMismatch        = errors.New("token audience mismatch")
	ErrRevoked                 = errors.New("token revoked")
	ErrBrandNotWhitelisted     = errors.New("brand not whitelisted")
	ErrInsufficientScope       = errors.New("insufficient scope")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
)

// VerifierService validates both token flavors: signature and standard
// claims via jwtx, then revocation and flavor policy on top.
type VerifierService struct {
	Verifier  *jwtx.Verifier
	Ledger    *RevocationLedger
	M2MIssuer string // required issuer on client_credentials tokens

	// BrandWhitelist limits which brands user tokens are accepted for.
	// Empty means all brands are accepted.
	BrandWhitelist []string
}

// VerifyUserAccessToken validates a user-flavor token and checks the holder
// carries every required permission. Partial permission coverage is a
// rejection, never a narrowed grant.
func (s *VerifierService) VerifyUserAccessToken(
	ctx context.Context,
	tokenStr string,
	requiredPermissions []string,
) (jwtx.Claims, error) {
	claims, err := s.verifyCommon(ctx, tokenStr)
	if err != nil {
		return jwtx.Claims{}, err
	}

	if claims.Kind() != jwtx.KindUserAccess {
		return jwtx.Claims{}, ErrAudienceMismatch
	}

	if !s.brandAllowed(claims.BrandID) {
		slogx.FromContext(ctx).Warn("rejected token for non-whitelisted brand",
			"brand_id", claims.BrandID, "token_id", claims.ID)
		return jwtx.Claims{}, ErrBrandNotWhitelisted
	}

	if !claims.HasPermissions(requiredPermissions) {
		return jwtx.Claims{}, ErrInsufficientPermissions
	}

	return claims, nil
}

// VerifyClientToken validates a machine-flavor token and checks it was
// granted every required scope.
func (s *VerifierService) VerifyClientToken(
	ctx context.Context,
	tokenStr string,
	requiredScopes ...string,
) (jwtx.Claims, error) {
	claims, err := s.verifyCommon(ctx, tokenStr)
	if err != nil {
		return jwtx.Claims{}, err
	}

	if claims.Kind() != jwtx.KindClientCredentials {
		return jwtx.Claims{}, ErrAudienceMismatch
	}

	if s.M2MIssuer != "" && claims.Issuer != s.M2MIssuer {
		return jwtx.Claims{}, ErrInvalidSignature
	}

	if !hasAllScopes(claims.GrantedScopes(), requiredScopes) {
		return jwtx.Claims{}, ErrInsufficientScope
	}

	return claims, nil
}

// Introspect runs the flavor-independent checks only: signature, standard
// claims, revocation. Introspection reports on any token flavor, so no
// audience policy or scope rules apply here.
func (s *VerifierService) Introspect(ctx context.Context, tokenStr string) (jwtx.Claims, error) {
	return s.verifyCommon(ctx, tokenStr)
}

// verifyCommon runs the flavor-independent checks: signature, standard
// claims, revocation.
func (s *VerifierService) verifyCommon(ctx context.Context, tokenStr string) (jwtx.Claims, error) {
	claims, err := s.Verifier.Verify(tokenStr)
	if err != nil {
		return jwtx.Claims{}, mapVerifyError(err)
	}

	if s.Ledger != nil && claims.ID != "" {
		revoked, err := s.Ledger.IsRevoked(ctx, claims.ID)
		if err != nil {
			return jwtx.Claims{}, err
		}
		if revoked {
			return jwtx.Claims{}, ErrRevoked
		}
	}

	return claims, nil
}

func (s *VerifierService) brandAllowed(brandID string) bool {
	if len(s.BrandWhitelist) == 0 {
		return true
	}
	for _, b := range s.BrandWhitelist {
		if b == brandID {
			return true
		}
	}
	return false
}

// mapVerifyError folds jwtx parse failures into the service taxonomy.
func mapVerifyError(err error) error {
	switch {
	case errors.Is(err, jwtx.ErrExpired):
		return ErrTokenExpired
	case errors.Is(err, jwtx.ErrAudience):
		return ErrAudienceMismatch
	case errors.Is(err, jwtx.ErrInvalidSig),
		errors.Is(err, jwtx.ErrAlgMismatch),
		errors.Is(err, jwtx.ErrUnknownKID),
		errors.Is(err, jwtx.ErrIssuer),
		errors.Is(err, jwtx.ErrNotYetValid):
		return ErrInvalidSignature
	case errors.Is(err, jwtx.ErrMalformed):
		return ErrMalformedToken
	default:
		return ErrMalformedToken
	}
}
