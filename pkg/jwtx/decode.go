package jwtx

import (
	"github.com/golang-jwt/jwt/v5"
)

// DecodeUnverified parses a token WITHOUT checking its signature or any
// claim. It exists for exactly one purpose: revocation bookkeeping, where we
// need the jti and expiry of a token the caller wants dead regardless of
// whether it would still verify.
//
// Never authorize anything based on what this returns. If you are reaching
// for this function anywhere outside the revocation path, you want
// Verifier.Verify instead.
func DecodeUnverified(tokenStr string) (Claims, error) {
	var claims Claims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenStr, &claims); err != nil {
		return Claims{}, ErrMalformed
	}
	return claims, nil
}
