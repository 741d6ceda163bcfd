package service

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/tradelane/gatehouse/internal/gatehouse/store"
	"github.com/tradelane/gatehouse/pkg/slogx"
)

const (
	// revocationGrace keeps cache entries a little past token expiry so
	// clock skew between issuer and verifier never resurrects a token.
	revocationGrace = 5 * time.Minute

	defaultRevocationCacheTTL = time.Hour
)

// RevocationLedger answers "has this token been revoked" from an in-process
// TTL cache backed by the durable issued-token store. The durable record is
// the source of truth; the cache only saves round trips.
type RevocationLedger struct {
	Store store.Store
	cache *cache.Cache
}

func NewRevocationLedger(st store.Store) *RevocationLedger {
	return &RevocationLedger{
		Store: st,
		cache: cache.New(defaultRevocationCacheTTL, 10*time.Minute),
	}
}

// Revoke marks a token ID as revoked. The durable write happens first so a
// process restart cannot forget the revocation. Idempotent: revoking an
// already revoked, expired, or unknown token ID succeeds.
func (r *RevocationLedger) Revoke(ctx context.Context, tokenID string, ttlHint time.Duration) error {
	l := slogx.FromContext(ctx)

	if err := r.Store.IssuedTokens().MarkTokenRevoked(ctx, tokenID); err != nil {
		return err
	}

	r.cache.Set(tokenID, true, cacheTTL(ttlHint))
	l.Info("token revoked", "token_id", tokenID)
	return nil
}

// IsRevoked reports whether the token ID has been revoked. A cache miss is
// never proof of non-revocation; it falls through to the durable store and
// backfills the cache on a hit.
func (r *RevocationLedger) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if _, found := r.cache.Get(tokenID); found {
		return true, nil
	}

	revoked, err := r.Store.IssuedTokens().IsTokenRevoked(ctx, tokenID)
	if err != nil {
		return false, err
	}
	if revoked {
		r.cache.Set(tokenID, true, defaultRevocationCacheTTL)
	}
	return revoked, nil
}

// cacheTTL bounds the cache entry lifetime: long enough to outlive the
// token plus grace, never unbounded.
func cacheTTL(ttlHint time.Duration) time.Duration {
	if ttlHint <= 0 {
		return defaultRevocationCacheTTL
	}
	return ttlHint + revocationGrace
}
