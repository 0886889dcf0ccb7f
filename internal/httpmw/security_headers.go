package httpmw

import (
	"context"
	"net/http"

	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/appenv"
	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/secpolicy"
)

type cspNonceKey struct{}

// WithCSPNonce attaches the per-response CSP nonce to the context so the
// page handler can stamp it onto inline script/style tags.
func WithCSPNonce(ctx context.Context, nonce string) context.Context {
	if nonce == "" {
		return ctx
	}
	return context.WithValue(ctx, cspNonceKey{}, nonce)
}

// CSPNonceFromContext returns the response nonce, or "" if headers are
// disabled or the middleware did not run.
func CSPNonceFromContext(ctx context.Context) string {
	n, _ := ctx.Value(cspNonceKey{}).(string)
	return n
}

// SecurityHeadersOptions configures the security header middleware.
// Mode and Env are resolved once at startup and threaded in here; the
// middleware never re-reads configuration per request.
type SecurityHeadersOptions struct {
	// Enabled is the single global kill-switch. When false the
	// middleware passes requests through untouched: no headers, no
	// nonce. There is no partial state.
	Enabled bool
	Mode    secpolicy.Mode
	Env     appenv.Environment
}

// SecurityHeaders is middleware that stamps the full security header set
// on every response, with a fresh CSP nonce per request. Headers are set
// before the handler runs so downstream code can read (but must not
// modify) them, and the nonce rides the context to the page renderer.
func SecurityHeaders(opts SecurityHeadersOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !opts.Enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nonce := secpolicy.NewNonce()
			for _, h := range secpolicy.HeaderSet(opts.Mode, nonce, opts.Env, true) {
				w.Header().Set(h.Key, h.Value)
			}
			next.ServeHTTP(w, r.WithContext(WithCSPNonce(r.Context(), nonce)))
		})
	}
}
