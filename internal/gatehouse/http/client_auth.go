package http

import (
	"net/http"
	"strings"

	"github.com/tradelane/gatehouse/internal/gatehouse/domain"
	"github.com/tradelane/gatehouse/internal/gatehouse/service"
)

// clientCredentialsFrom extracts client_id/client_secret from the HTTP Basic
// Authorization header or, failing that, from the form body. RFC 6749 allows
// both; Basic wins when present.
func clientCredentialsFrom(r *http.Request) (clientID, clientSecret string) {
	if id, secret, ok := r.BasicAuth(); ok {
		return id, secret
	}
	return strings.TrimSpace(r.Form.Get("client_id")), r.Form.Get("client_secret")
}

// authenticateClient resolves and verifies the calling client's credentials.
// The form must already be parsed.
func authenticateClient(r *http.Request, directory *service.DirectoryService) (domain.Client, error) {
	clientID, clientSecret := clientCredentialsFrom(r)
	if clientID == "" {
		return domain.Client{}, service.ErrInvalidCredentials
	}
	return directory.ValidateCredentials(r.Context(), clientID, clientSecret)
}
