package httpmw

import (
	"net/http"

	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/log"
	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/xerrors"
)

// Recover converts handler panics into logged 500 responses so one bad
// request cannot take the process down. onPanic is an optional hook for
// incrementing counters/alerts; it runs after logging.
func Recover(L log.Logger, onPanic func()) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				// http.ErrAbortHandler is the sanctioned way to abort a
				// response; let it propagate to the server.
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				err, ok := rec.(error)
				if !ok {
					err = xerrors.Newf("panic: %v", rec)
				} else {
					err = xerrors.EnsureTrace(err)
				}

				if L != nil {
					L.Error(r.Context(), err, "httpserver panic recovered",
						"http.request.method", r.Method,
						"url.path", r.URL.Path,
					)
				}
				if onPanic != nil {
					onPanic()
				}

				// best effort: header may already be written
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte("internal server error\n"))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
