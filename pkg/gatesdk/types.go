package gatesdk

import "time"

// ErrorResponse represents a standard OAuth2 error response per RFC 6749.
// This is used internally for parsing HTTP error responses; client code
// should use the OAuth2Error type instead.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// TokenResponse represents the OAuth2 token endpoint response per RFC 6749,
// returned from POST /v1/oauth2/token for the client_credentials grant.
type TokenResponse struct {
	// AccessToken is the JWT access token used to authenticate API requests
	AccessToken string `json:"access_token"`

	// TokenType is always "Bearer"
	TokenType string `json:"token_type"`

	// ExpiresIn is the lifetime in seconds of the access token
	ExpiresIn int `json:"expires_in"`

	// Scope is the space-delimited list of scopes granted to this token
	Scope string `json:"scope,omitempty"`
}

// IntrospectionResponse represents the RFC 7662 token introspection response.
// When a token is inactive only Active is present and false.
type IntrospectionResponse struct {
	Active bool `json:"active"`

	Scope     string   `json:"scope,omitempty"`
	ClientID  string   `json:"client_id,omitempty"`
	TokenType string   `json:"token_type,omitempty"`
	Exp       int64    `json:"exp,omitempty"`
	Iat       int64    `json:"iat,omitempty"`
	Sub       string   `json:"sub,omitempty"`
	Aud       []string `json:"aud,omitempty"`
	Iss       string   `json:"iss,omitempty"`
	Jti       string   `json:"jti,omitempty"`
}

// PlatformTokenRequest is the body for POST /v1/platform/token. The user has
// already been authenticated upstream; this request asks for a platform
// access token to be minted for them.
type PlatformTokenRequest struct {
	UserID      string   `json:"user_id"`
	Email       string   `json:"email,omitempty"`
	FirstName   string   `json:"first_name,omitempty"`
	LastName    string   `json:"last_name,omitempty"`
	BrandID     string   `json:"brand_id,omitempty"`
	PlatformID  string   `json:"platform_id,omitempty"`
	WalletID    string   `json:"wallet_id,omitempty"`
	Permissions []string `json:"permissions,omitempty"`

	// ExpiresIn optionally overrides the default token lifetime, in seconds.
	ExpiresIn int `json:"expires_in,omitempty"`
}

// PlatformTokenResponse is returned from POST /v1/platform/token.
type PlatformTokenResponse struct {
	PlatformAccessToken string    `json:"platform_access_token"`
	ExpiresAt           time.Time `json:"expires_at"`
	TokenID             string    `json:"token_id"`
}

// SessionInfo is the session payload returned by the session endpoints.
type SessionInfo struct {
	SessionID   string    `json:"session_id"`
	UserID      string    `json:"user_id"`
	Email       string    `json:"email,omitempty"`
	FirstName   string    `json:"first_name,omitempty"`
	LastName    string    `json:"last_name,omitempty"`
	BrandID     string    `json:"brand_id,omitempty"`
	PlatformID  string    `json:"platform_id,omitempty"`
	WalletID    string    `json:"wallet_id,omitempty"`
	Permissions []string  `json:"permissions,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// SessionValidateResponse is returned from POST /v1/session/validate.
type SessionValidateResponse struct {
	Success   bool        `json:"success"`
	Session   SessionInfo `json:"session"`
	CSRFToken string      `json:"csrf_token"`
}

// ClientRecord is the admin-surface view of a registered machine client.
// Secret material is never present.
type ClientRecord struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	ContactEmail string    `json:"contact_email,omitempty"`
	ServiceType  string    `json:"service_type,omitempty"`
	Scopes       []string  `json:"scopes"`
	Protected    bool      `json:"protected,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ClientUpsertRequest is the body for creating or updating a client.
type ClientUpsertRequest struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	ContactEmail string   `json:"contact_email,omitempty"`
	ServiceType  string   `json:"service_type,omitempty"`
	Scopes       []string `json:"scopes"`
}

// ClientCreatedResponse carries the one-time plaintext secret alongside the
// created client. The secret cannot be retrieved again.
type ClientCreatedResponse struct {
	Client       ClientRecord `json:"client"`
	ClientSecret string       `json:"client_secret"`
}

// SecretRotatedResponse carries the one-time replacement secret.
type SecretRotatedResponse struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// HealthChecks reports per-dependency status in readiness probes.
type HealthChecks struct {
	Database string `json:"database,omitempty"`
	Keys     string `json:"keys,omitempty"`
}

// HealthResponse is returned from the /livez and /readyz endpoints.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}
