// Package sitehandler serves the HTML landing page. The page carries an
// inline script and style stamped with the per-request CSP nonce, which
// is what makes the strict policy workable without 'unsafe-inline'.
package sitehandler

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"

	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/httpmw"
	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/log"
)

var ErrInvalidOptions = errors.New("sitehandler: invalid options")

// pageTemplate is deliberately tiny. The inline script/style exist to
// exercise the nonce path; everything real is served from allow-listed
// origins.
const pageTemplate = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.AppName}}</title>
<style nonce="{{.Nonce}}">body{font-family:sans-serif;margin:4rem auto;max-width:40rem}</style>
</head>
<body>
<h1>{{.AppName}}</h1>
<p>up and serving</p>
<script nonce="{{.Nonce}}">document.documentElement.dataset.js="1";</script>
</body>
</html>
`

type Options struct {
	Logger log.Logger
	// AppName is rendered into the page title and heading.
	AppName string
}

func (o *Options) validate() error {
	if o.AppName == "" {
		return ErrInvalidOptions
	}
	return nil
}

type Handler struct {
	opts Options
	tmpl *template.Template
}

func New(opts *Options) (*Handler, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	tmpl, err := template.New("page").Parse(pageTemplate)
	if err != nil {
		return nil, err
	}
	return &Handler{opts: *opts, tmpl: tmpl}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// hardening: only allow GET/HEAD
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// nonce is empty when the security header middleware is disabled;
	// the template then renders nonce="" which no policy references
	nonce := httpmw.CSPNonceFromContext(r.Context())

	// render to a buffer first so template errors never produce a
	// half-written 200
	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, struct {
		AppName string
		Nonce   string
	}{h.opts.AppName, nonce}); err != nil {
		h.opts.Logger.Error(r.Context(), err, "site page render failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	// the page embeds a per-request nonce, caching would break enforcement
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(buf.Bytes())
}
