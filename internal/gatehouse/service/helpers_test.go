package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tradelane/gatehouse/internal/gatehouse/domain"
	"github.com/tradelane/gatehouse/internal/gatehouse/store"
	"github.com/tradelane/gatehouse/internal/gatehouse/store/drivers/sqlite"
	"github.com/tradelane/gatehouse/pkg/cryptox"
	"github.com/tradelane/gatehouse/pkg/idx"
	"github.com/tradelane/gatehouse/pkg/jwtx"
)

const (
	testIssuer    = "gatehouse-test"
	testM2MIssuer = "brand-platform-m2m"
	testBrand     = "brand-portal"
)

type testEnv struct {
	store    store.Store
	signer   *jwtx.Signer
	keys     *jwtx.KeySet
	issuer   *IssuerService
	verifier *VerifierService
	ledger   *RevocationLedger
}

func newTestEnv(t *testing.T) *testEnv {
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

	ledger := NewRevocationLedger(st)

	issuer := &IssuerService{
		Signer:    signer,
		Store:     st,
		Issuer:    testIssuer,
		M2MIssuer: testM2MIssuer,
		BrandID:   testBrand,
	}

	verifier := &VerifierService{
		Verifier:  jwtx.NewVerifierRS256(keys, jwtx.VerifierOptions{}),
		Ledger:    ledger,
		M2MIssuer: testM2MIssuer,
	}

	return &testEnv{
		store:    st,
		signer:   signer,
		keys:     keys,
		issuer:   issuer,
		verifier: verifier,
		ledger:   ledger,
	}
}

func (e *testEnv) createClient(t *testing.T, scopes []string) domain.Client {
	t.Helper()

	client := domain.Client{
		ID:         idx.New().String(),
		Name:       "test-service",
		Scopes:     scopes,
		SecretHash: "unused",
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	require.NoError(t, e.store.Clients().CreateClient(context.Background(), client))
	return client
}

func testUser() domain.AuthenticatedUser {
	return domain.AuthenticatedUser{
		ID:         "user-1",
		Email:      "alice@example.com",
		FirstName:  "Alice",
		LastName:   "Smith",
		BrandID:    testBrand,
		PlatformID: "platform-1",
		WalletID:   "wallet-1",
	}
}
