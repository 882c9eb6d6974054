package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/streamnest/internal/auth/store"
	"github.com/aussiebroadwan/streamnest/pkg/authsdk"
	"github.com/aussiebroadwan/streamnest/pkg/httpx"
	"github.com/aussiebroadwan/streamnest/pkg/slogx"
)

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe that pings the database.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"database unreachable"
//	@Router			/readyz [get].
func ReadyzHandler(startTime time.Time, version string, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &authsdk.HealthChecks{Database: "ok"}
		status := "ok"
		code := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			// The probe is unauthenticated; keep the cause in the log only.
			slogx.FromContext(r.Context()).Warn("readiness check failed", "error", err)
			checks.Database = "unavailable"
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, authsdk.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
