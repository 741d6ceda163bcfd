package domain

import "time"

// TokenGrant is what the token endpoints return: the signed JWT plus its
// standard OAuth2 envelope fields.
type TokenGrant struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type,omitempty"` // always "Bearer"
	ExpiresIn   time.Duration `json:"expires_in"`           // seconds until expiry
	Scope       string        `json:"scope,omitempty"`      // space-delimited
}

// IssuedToken is the durable ledger record kept for every token minted.
// The record outlives the token itself so revocations can be answered even
// after the in-process cache restarts.
type IssuedToken struct {
	ID        string // jti claim
	Kind      string // "user_access" or "client_credentials"
	Subject   string // user ID or client ID
	ClientID  string // issuing client for machine tokens, empty otherwise
	BrandID   string
	Scopes    []string
	Revoked   bool
	RevokedAt *time.Time
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// AuthenticatedUser carries the upstream-verified identity a user access
// token is minted for. The platform gateway authenticates; this service
// only vouches.
type AuthenticatedUser struct {
	ID          string   `json:"user_id"`
	Email       string   `json:"email"`
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	BrandID     string   `json:"brand_id"`
	PlatformID  string   `json:"platform_id"`
	WalletID    string   `json:"wallet_id"`
	Permissions []string `json:"permissions,omitempty"`
}
