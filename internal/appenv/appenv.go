// Package appenv resolves the deployment environment classification once
// per process. Every environment-sensitive decision (CSP relaxations,
// pepper fail-fast, HSTS upgrades) takes the resolved value as a
// parameter instead of re-reading configuration, so the same logical
// check can never drift between call sites.
package appenv

import "strings"

// Environment classifies where the process is running.
type Environment int

const (
	// Production is the default: any unset or unrecognized value resolves
	// here so a misconfigured box gets the stricter behavior, never the
	// looser one.
	Production Environment = iota
	Development
	Test
)

func (e Environment) String() string {
	switch e {
	case Development:
		return "development"
	case Test:
		return "test"
	default:
		return "production"
	}
}

// Parse maps a configuration string onto an Environment. Matching is
// case-insensitive and whitespace-tolerant. Unknown values fall back to
// Production (fail-secure), never to Development.
func Parse(s string) Environment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "development", "dev":
		return Development
	case "test":
		return Test
	default:
		return Production
	}
}

// IsProduction reports whether e should get production hardening
// (no CSP relaxations, pepper required, upgrade-insecure-requests).
func (e Environment) IsProduction() bool { return e == Production }

// IsDevelopment reports whether dev-only CSP relaxations are allowed.
func (e Environment) IsDevelopment() bool { return e == Development }
