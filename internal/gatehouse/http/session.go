package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/tradelane/gatehouse/internal/gatehouse/domain"
	"github.com/tradelane/gatehouse/internal/gatehouse/service"
	"github.com/tradelane/gatehouse/pkg/gatesdk"
	"github.com/tradelane/gatehouse/pkg/httpx"
	"github.com/tradelane/gatehouse/pkg/slogx"
)

const (
	sessionCookieName = "gatehouse_session"
	csrfHeaderName    = "X-CSRF-Token"
)

// SessionHandler serves the platform-side session surface: exchanging a
// verified access token for a session, reading session info, and logout.
type SessionHandler struct {
	Verifier *service.VerifierService
	Sessions *service.SessionService

	// SecureCookies controls the cookie Secure flag; off for local dev.
	SecureCookies bool
}

// HandleValidate serves POST /v1/session/validate. The access token can
// arrive as a bearer header, form field, or query parameter; it gets the
// full user-flavor verification before a session is established.
func (h *SessionHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	token := extractToken(r)
	if token == "" {
		gatesdk.ErrInvalidRequest.WriteError(w)
		return
	}

	claims, err := h.Verifier.VerifyUserAccessToken(ctx, token, nil)
	if err != nil {
		log.Info("session validate rejected token", "err", err)
		gatesdk.ErrInvalidToken.WriteError(w)
		return
	}

	session, err := h.Sessions.Establish(ctx, claims)
	if err != nil {
		log.Error("failed to establish session", "err", err)
		gatesdk.ErrServerError.WriteError(w)
		return
	}

	h.setSessionCookie(w, session)

	httpx.WriteJSON(w, http.StatusOK, gatesdk.SessionValidateResponse{
		Success:   true,
		Session:   sessionInfo(session),
		CSRFToken: h.Sessions.DeriveCSRF(session),
	})
}

// HandleInfo serves GET /v1/session.
func (h *SessionHandler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	session, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	httpx.WriteJSON(w, http.StatusOK, struct {
		gatesdk.SessionInfo
		Age string `json:"age"`
	}{
		SessionInfo: sessionInfo(session),
		Age:         time.Since(session.CreatedAt).Round(time.Second).String(),
	})
}

// HandleLogout serves POST /v1/session/logout. The session is deleted and
// its origin token revoked, so the token that minted the session cannot be
// replayed into a fresh one.
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	session, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	if err := h.Sessions.VerifyCSRF(session, r.Header.Get(csrfHeaderName)); err != nil {
		gatesdk.ErrAccessDenied.WriteError(w)
		return
	}

	if err := h.Sessions.Terminate(ctx, session.ID); err != nil && !errors.Is(err, service.ErrSessionNotFound) {
		log.Error("failed to terminate session", "err", err, "session_id", session.ID)
		gatesdk.ErrServerError.WriteError(w)
		return
	}

	h.clearSessionCookie(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// currentSession resolves the session cookie to a live session, writing the
// error response itself when there is none.
func (h *SessionHandler) currentSession(w http.ResponseWriter, r *http.Request) (domain.Session, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		gatesdk.ErrInvalidToken.WriteError(w)
		return domain.Session{}, false
	}

	session, err := h.Sessions.Get(r.Context(), cookie.Value)
	if err != nil {
		gatesdk.ErrInvalidToken.WriteError(w)
		return domain.Session{}, false
	}
	return session, true
}

func (h *SessionHandler) setSessionCookie(w http.ResponseWriter, session domain.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.ID,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *SessionHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// extractToken pulls the access token from the Authorization header, form
// body, or query string, in that order.
func extractToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if err := r.ParseForm(); err == nil {
		if token := r.Form.Get("token"); token != "" {
			return token
		}
	}
	return r.URL.Query().Get("token")
}

func sessionInfo(s domain.Session) gatesdk.SessionInfo {
	return gatesdk.SessionInfo{
		SessionID:   s.ID,
		UserID:      s.UserID,
		Email:       s.Email,
		FirstName:   s.FirstName,
		LastName:    s.LastName,
		BrandID:     s.BrandID,
		PlatformID:  s.PlatformID,
		WalletID:    s.WalletID,
		Permissions: s.Permissions,
		ExpiresAt:   s.ExpiresAt,
		CreatedAt:   s.CreatedAt,
	}
}
