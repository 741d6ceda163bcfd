package jwtx

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"sync"
)

var ErrNoKey = errors.New("jwtx: key not found")

// KeySet holds the RSA public verification keys in memory, keyed by kid.
// It is safe for concurrent use: the issuing side reads it for JWKS
// publishing while verifiers hit it on every request.
type KeySet struct {
	mu  sync.RWMutex
	jks JWKS
	pub map[string]*rsa.PublicKey
}

// NewKeySet returns an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{pub: make(map[string]*rsa.PublicKey)}
}

// AddSigner registers a Signer's public key into the set.
func (k *KeySet) AddSigner(s *Signer) error {
	return k.AddJWK(s.PublicJWK())
}

// AddJWK adds a JWK to the set, parsing it into a usable *rsa.PublicKey.
func (k *KeySet) AddJWK(j JWK) error {
	key, err := parseRSAJWK(j)
	if err != nil {
		return err
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pub[j.Kid] = key
	k.jks.Keys = append(k.jks.Keys, j)
	return nil
}

// AddPublicKeyPEM registers a PEM-encoded public key under the given kid.
// This is how verify-only deployments load the issuer's distributed key.
func (k *KeySet) AddPublicKeyPEM(kid string, pemKey []byte) error {
	block, _ := pem.Decode(pemKey)
	if block == nil {
		return errors.New("jwtx: invalid PEM for public key")
	}

	var pub *rsa.PublicKey

	switch block.Type {
	case "RSA PUBLIC KEY":
		p, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return fmt.Errorf("jwtx: parse PKCS1 public key: %w", err)
		}
		pub = p
	case "PUBLIC KEY":
		parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return fmt.Errorf("jwtx: parse PKIX public key: %w", err)
		}
		p, ok := parsed.(*rsa.PublicKey)
		if !ok {
			return errors.New("jwtx: not an RSA public key")
		}
		pub = p
	default:
		return fmt.Errorf("jwtx: unsupported PEM type %q", block.Type)
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	k.pub[kid] = pub
	k.jks.Keys = append(k.jks.Keys, NewRSAJWK(kid, "sig", "RS256", pub))
	return nil
}

// Get returns the public key registered for the given kid.
func (k *KeySet) Get(kid string) (*rsa.PublicKey, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if pk, ok := k.pub[kid]; ok {
		return pk, nil
	}
	return nil, ErrNoKey
}

// PublicJWKS returns a snapshot of the set for the JWKS endpoint.
func (k *KeySet) PublicJWKS() JWKS {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.jks
}

// IsReady reports whether at least one verification key is loaded.
func (k *KeySet) IsReady() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.pub) > 0
}

func parseRSAJWK(j JWK) (*rsa.PublicKey, error) {
	if j.Kty != "RSA" {
		return nil, errors.New("jwtx: unsupported kty " + j.Kty)
	}
	nb, err := base64.RawURLEncoding.DecodeString(j.N)
	if err != nil {
		return nil, err
	}
	eb, err := base64.RawURLEncoding.DecodeString(j.E)
	if err != nil {
		return nil, err
	}
	n := new(big.Int).SetBytes(nb)
	e := new(big.Int).SetBytes(eb).Int64()
	return &rsa.PublicKey{N: n, E: int(e)}, nil
}
