package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrUnknownKID  = errors.New("jwtx: unknown kid")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")

	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrAudience    = errors.New("jwtx: audience mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
)

// Verifier validates RS256 tokens against a KeySet and returns the claims if
// they hold up. The algorithm list handed to the parser is pinned to exactly
// RS256, which is what rejects alg=none and any cross-algorithm confusion.
type Verifier struct {
	keys   *KeySet
	issuer string
	aud    []string
	leeway time.Duration
}

// VerifierOptions capture the claim expectations for one verifier instance.
type VerifierOptions struct {
	// Issuer the token must carry (iss). Empty means "don't care".
	Issuer string

	// Audience values of which at least one must be present (aud).
	// Empty means "don't care".
	Audience []string

	// Leeway allows small clock skew on exp/nbf. Time sync is never perfect.
	Leeway time.Duration
}

// NewVerifierRS256 builds a verifier over the given public KeySet.
func NewVerifierRS256(keys *KeySet, opts VerifierOptions) *Verifier {
	return &Verifier{
		keys:   keys,
		issuer: opts.Issuer,
		aud:    opts.Audience,
		leeway: opts.Leeway,
	}
}

// Verify parses and validates the compact token string. Signature and
// standard claims are checked here; callers layer business rules (revocation,
// brand whitelists, scopes) on top of the returned claims.
func (v *Verifier) Verify(tokenStr string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithLeeway(v.leeway),
	)

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrUnknownKID
		}
		pub, err := v.keys.Get(kid)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKID, kid)
		}
		return pub, nil
	})
	if err != nil {
		return Claims{}, mapParseError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Claims{}, ErrMalformed
	}

	if err := claims.ValidateIssuer(v.issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateAudience(v.aud); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiry(v.leeway); err != nil {
		return Claims{}, err
	}

	return *claims, nil
}

// mapParseError folds the jwt library's error tree into our sentinels so
// callers can switch on errors.Is without importing the library.
func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenUnverifiable), errors.Is(err, ErrUnknownKID):
		return ErrUnknownKID
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
