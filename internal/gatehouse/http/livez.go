package http

import (
	"net/http"
	"time"

	"github.com/tradelane/gatehouse/pkg/gatesdk"
	"github.com/tradelane/gatehouse/pkg/httpx"
)

// LivezHandler is the liveness probe: it returns 200 whenever the process
// is up, no dependency checks.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, gatesdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}
