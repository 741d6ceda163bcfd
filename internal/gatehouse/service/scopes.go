package service

import (
	"strings"

	"github.com/tradelane/gatehouse/internal/gatehouse/domain"
)

// joinSpaceDelimited renders a scope list in OAuth2 wire form.
func joinSpaceDelimited(scopes []string) string {
	return strings.Join(scopes, " ")
}

// grantedScopes computes the scope set a client is granted: everything it
// is allowed when nothing was requested, otherwise the requested scopes the
// client allows, in requested order with duplicates dropped.
func grantedScopes(client domain.Client, requested []string) []string {
	if len(requested) == 0 {
		return client.Scopes
	}

	seen := make(map[string]struct{}, len(requested))
	var out []string
	for _, s := range requested {
		if !client.AllowsScope(s) {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// hasAllScopes reports whether granted covers every scope in required.
func hasAllScopes(granted, required []string) bool {
	grantedSet := make(map[string]struct{}, len(granted))
	for _, s := range granted {
		grantedSet[s] = struct{}{}
	}
	for _, s := range required {
		if _, ok := grantedSet[s]; !ok {
			return false
		}
	}
	return true
}
