package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tradelane/gatehouse/internal/gatehouse/service"
	"github.com/tradelane/gatehouse/pkg/gatesdk"
	"github.com/tradelane/gatehouse/pkg/httpx"
	"github.com/tradelane/gatehouse/pkg/jwtx"
)

// IntrospectHandler serves POST /v1/oauth2/introspect following RFC 7662.
// The caller authenticates with its client credentials; the response never
// reveals WHY a token is inactive.
type IntrospectHandler struct {
	Verifier  *service.VerifierService
	Directory *service.DirectoryService
}

func (h *IntrospectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		gatesdk.ErrInvalidContentType.WriteError(w)
		return
	}

	if err := r.ParseForm(); err != nil {
		gatesdk.ErrInvalidFormBody.WriteError(w)
		return
	}

	if _, err := authenticateClient(r, h.Directory); err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			gatesdk.ErrInvalidClient.WriteError(w)
			return
		}
		gatesdk.ErrServerError.WriteError(w)
		return
	}

	token := r.Form.Get("token")
	if token == "" {
		gatesdk.ErrInvalidRequest.WriteError(w)
		return
	}

	// Only JWT access tokens exist here; any other hint means inactive.
	if hint := r.Form.Get("token_type_hint"); hint != "" && hint != "access_token" {
		writeInactive(w)
		return
	}

	claims, err := h.Verifier.Introspect(ctx, token)
	if err != nil {
		// Per RFC 7662, any failure is just "active": false.
		writeInactive(w)
		return
	}

	resp := gatesdk.IntrospectionResponse{
		Active:    true,
		Scope:     claims.Scope,
		ClientID:  claims.ClientID,
		TokenType: "Bearer",
		Sub:       claims.Subject,
		Aud:       []string(claims.Audience),
		Iss:       claims.Issuer,
		Jti:       claims.ID,
	}
	if claims.Kind() == jwtx.KindUserAccess {
		resp.Scope = strings.Join(claims.Permissions, " ")
	}
	if claims.ExpiresAt != nil {
		resp.Exp = claims.ExpiresAt.Unix()
	}
	if claims.IssuedAt != nil {
		resp.Iat = claims.IssuedAt.Unix()
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

func writeInactive(w http.ResponseWriter) {
	httpx.WriteJSON(w, http.StatusOK, gatesdk.IntrospectionResponse{Active: false})
}
