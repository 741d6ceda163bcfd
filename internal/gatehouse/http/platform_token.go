package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/tradelane/gatehouse/internal/gatehouse/domain"
	"github.com/tradelane/gatehouse/internal/gatehouse/service"
	"github.com/tradelane/gatehouse/pkg/gatesdk"
	"github.com/tradelane/gatehouse/pkg/httpx"
	"github.com/tradelane/gatehouse/pkg/slogx"
)

// PlatformTokenHandler serves POST /v1/platform/token: the brand-side
// issuance endpoint. The user arrives pre-authenticated; whichever identity
// provider the brand runs did that work. This endpoint only mints the
// platform access token.
type PlatformTokenHandler struct {
	Issuer *service.IssuerService
}

func (h *PlatformTokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req gatesdk.PlatformTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		gatesdk.ErrInvalidRequest.WriteError(w)
		return
	}

	user := domain.AuthenticatedUser{
		ID:          req.UserID,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		BrandID:     req.BrandID,
		PlatformID:  req.PlatformID,
		WalletID:    req.WalletID,
		Permissions: req.Permissions,
	}

	issued, err := h.Issuer.IssueUserAccessToken(ctx, user, time.Duration(req.ExpiresIn)*time.Second)
	if err != nil {
		if errors.Is(err, service.ErrMissingUserID) {
			gatesdk.ErrInvalidRequest.WriteError(w)
			return
		}
		log.Error("platform token issuance failed", "err", err, "user_id", req.UserID)
		gatesdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, gatesdk.PlatformTokenResponse{
		PlatformAccessToken: issued.Token,
		ExpiresAt:           issued.ExpiresAt,
		TokenID:             issued.TokenID,
	})
}
