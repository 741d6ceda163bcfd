package httpx

import "net/http"

// Middleware is the standard net/http decorator shape.
type Middleware func(http.Handler) http.Handler

// Chain wraps h with the given middlewares so that the first listed runs
// outermost.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
