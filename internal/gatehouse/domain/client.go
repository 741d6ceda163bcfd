package domain

import "time"

// Client is a registered machine client allowed to request
// client-credentials tokens.
type Client struct {
	ID           string
	Name         string
	Description  string
	ContactEmail string
	ServiceType  string // e.g. "backend", "worker", "integration"
	SecretHash   string
	Scopes       []string
	Protected    bool // If true, client cannot be deleted (e.g., bootstrap client)
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AllowsScope reports whether the client is permitted the given scope.
func (c *Client) AllowsScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}
