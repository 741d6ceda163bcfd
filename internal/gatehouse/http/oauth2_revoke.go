package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/tradelane/gatehouse/internal/gatehouse/service"
	"github.com/tradelane/gatehouse/pkg/gatesdk"
	"github.com/tradelane/gatehouse/pkg/jwtx"
	"github.com/tradelane/gatehouse/pkg/slogx"
)

// RevokeHandler serves POST /v1/oauth2/revoke following RFC 7009. A 200 with
// an empty body is returned whether or not the presented token was valid;
// the only hard failure is trying to revoke a token issued to someone else.
type RevokeHandler struct {
	Ledger    *service.RevocationLedger
	Directory *service.DirectoryService
}

func (h *RevokeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		gatesdk.ErrInvalidContentType.WriteError(w)
		return
	}

	if err := r.ParseForm(); err != nil {
		gatesdk.ErrInvalidFormBody.WriteError(w)
		return
	}

	caller, err := authenticateClient(r, h.Directory)
	if err != nil {
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

	// Signature validity is irrelevant for revocation bookkeeping; an
	// expired token is revoked just as happily as a live one. Decode only
	// to learn the jti and ownership.
	claims, err := jwtx.DecodeUnverified(token)
	if err != nil || claims.ID == "" {
		// RFC 7009: an unparseable token is a successful no-op.
		w.WriteHeader(http.StatusOK)
		return
	}

	// Machine tokens may only be revoked by the client they were issued to.
	if claims.Kind() == jwtx.KindClientCredentials && claims.ClientID != caller.ID {
		log.Warn("client attempted to revoke another client's token",
			"caller_id", caller.ID, "owner_id", claims.ClientID)
		gatesdk.ErrAccessDenied.WriteError(w)
		return
	}

	var ttlHint time.Duration
	if claims.ExpiresAt != nil {
		ttlHint = time.Until(claims.ExpiresAt.Time)
	}

	if err := h.Ledger.Revoke(ctx, claims.ID, ttlHint); err != nil {
		log.Error("failed to revoke token", "err", err, "token_id", claims.ID)
		gatesdk.ErrServerError.WriteError(w)
		return
	}

	w.WriteHeader(http.StatusOK)
}
