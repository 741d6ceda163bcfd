package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tradelane/gatehouse/internal/gatehouse/service"
	"github.com/tradelane/gatehouse/pkg/gatesdk"
	"github.com/tradelane/gatehouse/pkg/httpx"
	"github.com/tradelane/gatehouse/pkg/slogx"
)

// TokenHandler serves POST /v1/oauth2/token.
// Accepts application/x-www-form-urlencoded per the RFC 6749 framework.
// Only the client_credentials grant is supported.
type TokenHandler struct {
	Issuer    *service.IssuerService
	Directory *service.DirectoryService
}

func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		gatesdk.ErrInvalidContentType.WriteError(w)
		return
	}

	if err := r.ParseForm(); err != nil {
		gatesdk.ErrInvalidFormBody.WriteError(w)
		return
	}

	if grantType := r.Form.Get("grant_type"); grantType != "client_credentials" {
		gatesdk.ErrUnsupportedGrantType.WriteError(w)
		return
	}

	h.handleClientCredentialsGrant(w, r)
}

func (h *TokenHandler) handleClientCredentialsGrant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	client, err := authenticateClient(r, h.Directory)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			gatesdk.ErrInvalidClient.WriteError(w)
			return
		}
		log.Error("client authentication failed", "err", err)
		gatesdk.ErrServerError.WriteError(w)
		return
	}

	requestedScopes := httpx.ParseSpaceDelimitedFields(r.Form.Get("scope"))

	grant, err := h.Issuer.IssueClientCredentialsToken(ctx, client, requestedScopes)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoValidScope):
			gatesdk.ErrInvalidScope.WriteError(w)
		default:
			log.Error("client_credentials grant failed", "err", err, "client_id", client.ID)
			gatesdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, gatesdk.TokenResponse{
		AccessToken: grant.AccessToken,
		TokenType:   grant.TokenType,
		ExpiresIn:   int(grant.ExpiresIn.Seconds()),
		Scope:       grant.Scope,
	})
}
