package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/health"
	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/httpmw"
	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/log"
)

type Options struct {
	Logger       log.Logger
	Port         int
	UseRecoverMW bool
	// OnPanic is forwarded to the recover middleware (metrics counter).
	OnPanic func()

	MetricsMW   func(http.Handler) http.Handler
	RateLimitMW func(http.Handler) http.Handler

	Health    health.Probe
	Readiness health.Probe

	// APIRoutes registers JSON endpoints (CSP report receiver) on the router.
	APIRoutes func(chi.Router)

	// SiteHandler serves everything no explicit route claims.
	SiteHandler http.Handler

	ClientIPOpts    httpmw.ClientIPOptions
	SecurityHeaders httpmw.SecurityHeadersOptions
}
