// Package reporthttp receives CSP violation reports on the report-uri
// endpoint declared by every served policy.
//
// Reports are browser-generated JSON and entirely attacker-influenced,
// so the handler bounds the body, tolerates junk, and never reflects
// report content back to the client. Accepted reports are logged and
// counted; that is the whole job, there is no storage.
package reporthttp

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/log"
	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/secpolicy"
)

// maxReportBytes bounds the report body. Real reports are a few hundred
// bytes; anything near this limit is garbage or abuse.
const maxReportBytes = 64 * 1024

// maxFieldLen truncates report fields before they reach the log, so a
// hostile report cannot bloat log storage.
const maxFieldLen = 512

// Hooks are optional counters fired per report outcome.
type Hooks struct {
	Accepted func()
	Rejected func()
}

// API implements the CSP report endpoint
type API struct {
	logger log.Logger
	hooks  Hooks
}

// NewAPI creates a new CSP report handler
func NewAPI(logger log.Logger, hooks Hooks) *API {
	if logger == nil {
		logger = log.Nop()
	}
	return &API{
		logger: logger,
		hooks:  hooks,
	}
}

// RegisterRoutes attaches the report endpoint to the router
func (api *API) RegisterRoutes(r chi.Router) {
	r.Post(secpolicy.ReportPath, api.HandleReport)
}

// HandleReport accepts one violation report. 204 on success, 400 on
// anything that does not parse into a csp-report envelope.
func (api *API) HandleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxReportBytes)

	var env reportEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil || env.Report == nil {
		if api.hooks.Rejected != nil {
			api.hooks.Rejected()
		}
		api.logger.Debug(ctx, "rejected malformed csp report")
		http.Error(w, `{"error":"malformed report"}`, http.StatusBadRequest)
		return
	}
	rep := env.Report

	api.logger.Info(ctx, "csp violation reported",
		"csp.violated_directive", truncate(rep.ViolatedDirective),
		"csp.effective_directive", truncate(rep.EffectiveDirective),
		"csp.blocked_uri", truncate(rep.BlockedURI),
		"csp.document_uri", truncate(rep.DocumentURI),
		"csp.source_file", truncate(rep.SourceFile),
		"csp.line_number", rep.LineNumber,
		"csp.disposition", truncate(rep.Disposition),
	)

	if api.hooks.Accepted != nil {
		api.hooks.Accepted()
	}
	w.WriteHeader(http.StatusNoContent)
}

func truncate(s string) string {
	if len(s) > maxFieldLen {
		return s[:maxFieldLen]
	}
	return s
}
