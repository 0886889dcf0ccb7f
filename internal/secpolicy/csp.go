package secpolicy

import (
	"strings"

	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/appenv"
)

// Directive is one CSP directive: a name and its ordered source tokens.
// A directive with no sources is dropped at serialization time, except
// for the valueless upgrade-insecure-requests.
type Directive struct {
	Name    string
	Sources []string
}

// DirectiveSet is the ordered CSP directive list for one response. It is
// rebuilt per request because script-src and style-src embed the nonce.
type DirectiveSet []Directive

// Third-party origins allowed to load script into the page. Keep this
// list short and audited: every entry here is an XSS trust grant.
//   - plausible.io: analytics
//   - browser.sentry-cdn.com: error reporting loader
//   - challenges.cloudflare.com: Turnstile challenge widget
var scriptSrcAllowed = []string{
	"https://plausible.io",
	"https://browser.sentry-cdn.com",
	"https://challenges.cloudflare.com",
}

var connectSrcAllowed = []string{
	"https://plausible.io",
	"https://*.ingest.sentry.io",
}

var frameSrcAllowed = []string{
	"https://challenges.cloudflare.com",
}

// BuildCSP assembles the directive set for one response. It is total:
// every input combination yields a usable policy, and an unknown
// environment is treated as production (the non-relaxed branch).
//
// Invariants:
//   - script-src never contains 'unsafe-inline' or 'unsafe-eval' outside
//     Development. The nonce is the only way to authorize inline script
//     in production; there is no nonce-absent fallback.
//   - style-src carries 'unsafe-inline' in every environment. Utility-CSS
//     tooling injects style elements at runtime and cannot tag them with
//     the nonce; scoping the exception to styles keeps it off the script
//     execution path.
//   - frame-ancestors is 'none' regardless of mode.
func BuildCSP(mode Mode, nonce string, env appenv.Environment) DirectiveSet {
	_ = mode // every mode currently shares one directive table; mode picks the header key

	scriptSrc := []string{"'self'"}
	scriptSrc = append(scriptSrc, scriptSrcAllowed...)
	if env.IsDevelopment() {
		scriptSrc = append(scriptSrc, "'unsafe-inline'", "'unsafe-eval'")
	}
	if nonce != "" {
		scriptSrc = append(scriptSrc, "'nonce-"+nonce+"'")
	}

	styleSrc := []string{"'self'", "'unsafe-inline'"}
	if nonce != "" {
		styleSrc = append(styleSrc, "'nonce-"+nonce+"'")
	}

	connectSrc := []string{"'self'"}
	connectSrc = append(connectSrc, connectSrcAllowed...)

	set := DirectiveSet{
		{Name: "default-src", Sources: []string{"'self'"}},
		{Name: "script-src", Sources: scriptSrc},
		{Name: "style-src", Sources: styleSrc},
		{Name: "img-src", Sources: []string{"'self'", "data:", "https:"}},
		{Name: "font-src", Sources: []string{"'self'", "data:"}},
		{Name: "connect-src", Sources: connectSrc},
		{Name: "frame-src", Sources: frameSrcAllowed},
		{Name: "object-src", Sources: []string{"'none'"}},
		{Name: "base-uri", Sources: []string{"'self'"}},
		{Name: "form-action", Sources: []string{"'self'"}},
		{Name: "frame-ancestors", Sources: []string{"'none'"}},
	}

	if env.IsProduction() {
		set = append(set, Directive{Name: "upgrade-insecure-requests"})
	}

	return set
}

// String serializes the set into a header value: directives joined with
// "; ", each as "name source source ...". Directives with an empty
// source list are dropped rather than emitted as a bare name;
// upgrade-insecure-requests is valueless by design and emitted as-is.
func (s DirectiveSet) String() string {
	parts := make([]string, 0, len(s))
	for _, d := range s {
		if d.Name == "upgrade-insecure-requests" {
			parts = append(parts, d.Name)
			continue
		}
		if len(d.Sources) == 0 {
			continue
		}
		parts = append(parts, d.Name+" "+strings.Join(d.Sources, " "))
	}
	return strings.Join(parts, "; ")
}
