package secpolicy

import (
	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/appenv"
)

// Header is one response security header. The set is an ordered slice so
// tests can assert a stable output; order carries no semantics on the
// wire.
type Header struct {
	Key   string
	Value string
}

// ReportPath is the CSP violation report endpoint declared in every
// policy. The receiver lives in internal/reporthttp.
const ReportPath = "/api/csp-report"

const (
	// Two years, subdomains included, preload-list eligible.
	hstsValue = "max-age=63072000; includeSubDomains; preload"

	// Deny-list of powerful browser capabilities nothing on the site uses.
	permissionsPolicyValue = "accelerometer=(), camera=(), geolocation=(), gyroscope=(), magnetometer=(), microphone=(), payment=(), usb=()"
)

// HeaderSet builds the full ordered response header set for one request.
//
// enabled=false is the single global kill-switch: it short-circuits to an
// empty set before any other computation, which is the only way a caller
// ever sees missing security headers. There is no partial output.
//
// The CSP value is the BuildCSP directive set plus a trailing report-uri
// directive, carried under Content-Security-Policy when the mode
// enforces, or Content-Security-Policy-Report-Only when it reports --
// never both.
func HeaderSet(mode Mode, nonce string, env appenv.Environment, enabled bool) []Header {
	if !enabled {
		return nil
	}

	p := PolicyFor(mode)

	cspKey := "Content-Security-Policy"
	if p.CSPReportOnly {
		cspKey = "Content-Security-Policy-Report-Only"
	}
	cspValue := BuildCSP(mode, nonce, env).String() + "; report-uri " + ReportPath

	return []Header{
		{Key: "X-Frame-Options", Value: p.FrameOptions},
		{Key: "X-Content-Type-Options", Value: "nosniff"},
		{Key: "Referrer-Policy", Value: "strict-origin-when-cross-origin"},
		{Key: "Strict-Transport-Security", Value: hstsValue},
		{Key: cspKey, Value: cspValue},
		{Key: "Permissions-Policy", Value: permissionsPolicyValue},
		{Key: "Cross-Origin-Embedder-Policy", Value: "unsafe-none"},
		{Key: "Cross-Origin-Opener-Policy", Value: "same-origin"},
		{Key: "Cross-Origin-Resource-Policy", Value: "cross-origin"},
	}
}
