package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifySecret(t *testing.T) {
	t.Parallel()

	hash, err := HashSecret("super-secret")
	require.NoError(t, err)

	// PHC format, never the plaintext.
	require.True(t, strings.HasPrefix(hash, "$argon2id$"))
	require.NotContains(t, hash, "super-secret")

	require.NoError(t, VerifySecret("super-secret", hash))
	require.Error(t, VerifySecret("wrong-secret", hash))
	require.Error(t, VerifySecret("", hash))
}

func TestHashSecretSaltsEveryCall(t *testing.T) {
	t.Parallel()

	a, err := HashSecret("same-input")
	require.NoError(t, err)
	b, err := HashSecret("same-input")
	require.NoError(t, err)

	require.NotEqual(t, a, b)
}

func TestVerifySecretRejectsGarbageHash(t *testing.T) {
	t.Parallel()

	require.Error(t, VerifySecret("anything", "not-a-phc-string"))
	require.Error(t, VerifySecret("anything", ""))
}

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	a, err := GenerateToken(TokenSize256)
	require.NoError(t, err)
	b, err := GenerateToken(TokenSize256)
	require.NoError(t, err)

	require.NotEmpty(t, a)
	require.NotEqual(t, a, b)
}

func TestFingerprintToken(t *testing.T) {
	t.Parallel()

	fp := FingerprintToken("some-token")
	require.NotEmpty(t, fp)
	require.Equal(t, fp, FingerprintToken("some-token"))
	require.NotEqual(t, fp, FingerprintToken("other-token"))
}

func TestGenerateRSAKey(t *testing.T) {
	t.Parallel()

	pemKey, err := GenerateRSAKey(2048)
	require.NoError(t, err)
	require.Contains(t, string(pemKey), "RSA PRIVATE KEY")

	pubPEM, err := PublicKeyPEM(pemKey)
	require.NoError(t, err)
	require.Contains(t, string(pubPEM), "PUBLIC KEY")

	_, err = GenerateRSAKey(512)
	require.Error(t, err)
}
