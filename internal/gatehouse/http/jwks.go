package http

import (
	"net/http"

	"github.com/tradelane/gatehouse/pkg/httpx"
	"github.com/tradelane/gatehouse/pkg/jwtx"
)

// JWKSHandler exposes the JSON Web Key Set so downstream platforms can
// verify tokens without a shared secret.
func JWKSHandler(keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, keys.PublicJWKS())
	}
}
