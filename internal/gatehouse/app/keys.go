package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/tradelane/gatehouse/pkg/jwtx"
)

var errNoKeyMaterial = errors.New("no key material configured: set GATEHOUSE_PRIVATE_KEY_PATH or GATEHOUSE_PUBLIC_KEY_PATH")

// KeyMaterial is the loaded RSA key state. Signer is nil for verify-only
// deployments, which only carry the public half.
type KeyMaterial struct {
	Signer *jwtx.Signer
	Keys   *jwtx.KeySet
}

// CanIssue reports whether this deployment holds the private key.
func (k *KeyMaterial) CanIssue() bool { return k.Signer != nil }

// LoadKeyMaterial reads the configured PEM files. A missing or unparseable
// private key is fatal here rather than surfacing as per-request signing
// failures later.
func LoadKeyMaterial(cfg Config, logger *slog.Logger) (*KeyMaterial, error) {
	keys := jwtx.NewKeySet()

	if cfg.PrivateKeyPath != "" {
		pemKey, err := os.ReadFile(cfg.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key %s: %w", cfg.PrivateKeyPath, err)
		}

		signer, err := jwtx.NewSignerRS256(cfg.KeyID, pemKey)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		if err := keys.AddSigner(signer); err != nil {
			return nil, err
		}

		logger.Info("loaded signing key", "kid", cfg.KeyID)
		return &KeyMaterial{Signer: signer, Keys: keys}, nil
	}

	if cfg.PublicKeyPath != "" {
		pemKey, err := os.ReadFile(cfg.PublicKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read public key %s: %w", cfg.PublicKeyPath, err)
		}
		if err := keys.AddPublicKeyPEM(cfg.KeyID, pemKey); err != nil {
			return nil, fmt.Errorf("failed to parse public key: %w", err)
		}

		logger.Info("loaded verification key, running verify-only", "kid", cfg.KeyID)
		return &KeyMaterial{Keys: keys}, nil
	}

	return nil, errNoKeyMaterial
}
