package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/tradelane/gatehouse/pkg/jwtx"
	"github.com/tradelane/gatehouse/pkg/slogx"
)

// ClientTokenVerifier is the slice of the verifier the authn middleware
// needs: full machine-token verification including revocation, not just a
// signature check.
type ClientTokenVerifier interface {
	VerifyClientToken(ctx context.Context, token string, requiredScopes ...string) (jwtx.Claims, error)
}

// AuthnClientMiddleware authenticates requests carrying a machine bearer
// token. On success the client ID and granted scopes are injected into the
// request context for the authz middleware and handlers.
func AuthnClientMiddleware(v ClientTokenVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
				writeBearerError(w, "missing bearer token")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

			claims, err := v.VerifyClientToken(ctx, raw)
			if err != nil {
				log.Warn("client token verification failed", "err", err)
				writeBearerError(w, "token verification failed")
				return
			}

			ctx = context.WithValue(ctx, CtxKeyClientID, claims.ClientID)
			ctx = context.WithValue(ctx, CtxKeyScopes, claims.GrantedScopes())
			ctx = context.WithValue(ctx, CtxKeyClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	w.WriteHeader(http.StatusUnauthorized)
}
