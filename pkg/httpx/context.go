package httpx

import "context"

type ctxKey string

const (
	CtxKeyClientID ctxKey = "client_id"
	CtxKeyScopes   ctxKey = "scopes"
	CtxKeyClaims   ctxKey = "claims"
)

// ClientIDFromContext returns the authenticated machine client's ID, if any.
func ClientIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyClientID).(string); ok {
		return v
	}
	return ""
}

func scopesFromCtx(ctx context.Context) []string {
	if v, ok := ctx.Value(CtxKeyScopes).([]string); ok {
		return v
	}
	return nil
}
