package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/tradelane/gatehouse/internal/gatehouse/service"
	"github.com/tradelane/gatehouse/internal/gatehouse/store"
	"github.com/tradelane/gatehouse/pkg/httpx"
	"github.com/tradelane/gatehouse/pkg/jwtx"
	"github.com/tradelane/gatehouse/pkg/slogx"
)

// AdminScope is required on machine tokens calling the clients admin surface.
const AdminScope = "clients:admin"

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	Issuer        *service.IssuerService
	Verifier      *service.VerifierService
	Ledger        *service.RevocationLedger
	Sessions      *service.SessionService
	Directory     *service.DirectoryService
	SecureCookies bool
}

func NewRouter(
	keys *jwtx.KeySet,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerOAuth2()
	r.registerPlatform()
	r.registerSessions()
	r.registerClients()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerOAuth2() {
	// POST /token - strict rate limit by IP (credential attempts)
	tokenHandler := &TokenHandler{Issuer: r.Issuer, Directory: r.Directory}
	r.Mux.Handle("POST /v1/oauth2/token",
		httpx.Chain(tokenHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /introspect - moderate rate limit
	introspectHandler := &IntrospectHandler{Verifier: r.Verifier, Directory: r.Directory}
	r.Mux.Handle("POST /v1/oauth2/introspect",
		httpx.Chain(introspectHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /revoke - moderate rate limit
	revokeHandler := &RevokeHandler{Ledger: r.Ledger, Directory: r.Directory}
	r.Mux.Handle("POST /v1/oauth2/revoke",
		httpx.Chain(revokeHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// GET /jwks.json - public endpoint with high limit
	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.keys),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

func (r *Router) registerPlatform() {
	h := &PlatformTokenHandler{Issuer: r.Issuer}

	// Brand-side issuance endpoint; strict IP limit since every call mints
	// a token.
	r.Mux.Handle("POST /v1/platform/token",
		httpx.Chain(h,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSessions() {
	h := &SessionHandler{
		Verifier:      r.Verifier,
		Sessions:      r.Sessions,
		SecureCookies: r.SecureCookies,
	}

	r.Mux.Handle("POST /v1/session/validate",
		httpx.Chain(http.HandlerFunc(h.HandleValidate),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("GET /v1/session",
		httpx.Chain(http.HandlerFunc(h.HandleInfo),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	r.Mux.Handle("POST /v1/session/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerClients() {
	h := &ClientsHandler{Directory: r.Directory}

	// Admin surface: machine token with the admin scope required.
	secure := func(handler http.HandlerFunc) http.Handler {
		return httpx.Chain(handler,
			httpx.AuthnClientMiddleware(r.Verifier),
			httpx.RequireAllScopes(AdminScope),
			httpx.RateLimitByClient(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("POST /v1/clients", secure(h.HandleCreate))
	r.Mux.Handle("GET /v1/clients", secure(h.HandleList))
	r.Mux.Handle("GET /v1/clients/{id}", secure(h.HandleGet))
	r.Mux.Handle("PUT /v1/clients/{id}", secure(h.HandleUpdate))
	r.Mux.Handle("DELETE /v1/clients/{id}", secure(h.HandleDelete))
	r.Mux.Handle("POST /v1/clients/{id}/secret", secure(h.HandleRotateSecret))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
