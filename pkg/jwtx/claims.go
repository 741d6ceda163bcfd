package jwtx

import (
	"crypto/rand"
	"encoding/hex"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Audience values baked into the token ecosystem. The audience claim is what
// scopes a token to one verifier class: a token minted for the trading
// platform is useless against the internal API and vice versa.
const (
	// AudiencePlatform marks user-access tokens consumed by the trading
	// platform's session bridge.
	AudiencePlatform = "platform-service"

	// AudienceAPI marks machine tokens consumed by internal API services.
	AudienceAPI = "api"
)

// Default token lifetimes. User tokens are short-lived single-purpose hand-off
// credentials; machine tokens live longer because re-authenticating costs a
// round trip the client would otherwise hammer us with.
const (
	DefaultUserTokenTTL    = 15 * time.Minute
	DefaultMachineTokenTTL = time.Hour
)

// DefaultLeeway absorbs small clock skew between issuer and verifiers when
// checking exp/nbf.
const DefaultLeeway = 30 * time.Second

// Kind identifies the token flavor. It is resolved exactly once from the
// audience claim at the verification boundary and carried explicitly from
// there; nothing downstream re-sniffs the raw token string.
type Kind int

const (
	KindUnknown Kind = iota
	KindUserAccess
	KindClientCredentials
)

func (k Kind) String() string {
	switch k {
	case KindUserAccess:
		return "user_access"
	case KindClientCredentials:
		return "client_credentials"
	default:
		return "unknown"
	}
}

// Claims is the full claim set carried by gatehouse tokens. The two flavors
// share the registered claims and nonce; flavor-specific fields are omitempty
// so a user token never serialises machine fields and vice versa.
type Claims struct {
	jwt.RegisteredClaims

	// Nonce is anti-replay material. Present on every token, not used for
	// equality checks today.
	Nonce string `json:"nonce,omitempty"`

	/* user-access flavor */

	Email      string `json:"email,omitempty"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	BrandID    string `json:"brand_id,omitempty"`
	PlatformID string `json:"platform_id,omitempty"`
	WalletID   string `json:"wallet_id,omitempty"`

	// Permissions granted to the user on the target platform.
	Permissions []string `json:"permissions,omitempty"`

	/* client-credentials flavor */

	ClientID   string `json:"client_id,omitempty"`
	ClientName string `json:"client_name,omitempty"`

	// Scope is the space-delimited granted scope set (RFC 6749 wire form).
	Scope string `json:"scope,omitempty"`
}

// Kind resolves the token flavor from the audience claim.
func (c *Claims) Kind() Kind {
	switch {
	case slices.Contains(c.Audience, AudiencePlatform):
		return KindUserAccess
	case slices.Contains(c.Audience, AudienceAPI):
		return KindClientCredentials
	default:
		return KindUnknown
	}
}

// GrantedScopes splits the space-delimited scope claim into fields.
func (c *Claims) GrantedScopes() []string {
	s := strings.TrimSpace(c.Scope)
	if s == "" {
		return nil
	}
	return strings.Fields(s)
}

// HasPermissions reports whether every required permission is granted.
// An empty required set is trivially satisfied.
func (c *Claims) HasPermissions(required []string) bool {
	for _, want := range required {
		if !slices.Contains(c.Permissions, want) {
			return false
		}
	}
	return true
}

// NewJTI returns a fresh token identifier for the "jti" claim. This is the
// revocation key, so it must be unique for at least as long as the token
// could be revoked and rechecked.
func NewJTI() string {
	return uuid.NewString()
}

// NewNonce returns 16 random bytes hex-encoded for the nonce claim.
func NewNonce() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// ValidateIssuer checks the issuer claim against an expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateAudience checks that at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil // nothing to enforce
	}
	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}
	return ErrAudience
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't used before
// it is valid (nbf), with leeway for clock skew between services.
func (c *Claims) ValidateExpiry(leeway time.Duration) error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}
	return nil
}
