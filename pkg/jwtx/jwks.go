package jwtx

import (
	"crypto/rsa"
	"encoding/base64"
	"math/big"
)

// JWK is a public key in JSON Web Key format (RFC 7517). Only RSA keys exist
// in this ecosystem; the struct keeps the standard field names for
// interoperability with jwt.io and friends.
type JWK struct {
	Kty string `json:"kty"`           // key type, always "RSA"
	Use string `json:"use,omitempty"` // "sig"
	Alg string `json:"alg,omitempty"` // "RS256"
	Kid string `json:"kid,omitempty"` // key ID

	N string `json:"n,omitempty"` // modulus (base64url)
	E string `json:"e,omitempty"` // exponent (base64url)
}

// JWKS is a JSON Web Key Set (RFC 7517).
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// NewRSAJWK builds a JWK for an RSA public key.
func NewRSAJWK(kid, use, alg string, pub *rsa.PublicKey) JWK {
	return JWK{
		Kty: "RSA",
		Use: use,
		Alg: alg,
		Kid: kid,
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
}
