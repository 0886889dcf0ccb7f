package secpolicy

import "strings"

// Mode selects how aggressively security headers are enforced.
type Mode int

const (
	// ModeStrict enforces CSP and is the fail-secure default for any
	// unrecognized configuration value.
	ModeStrict Mode = iota
	// ModeModerate enforces CSP but relaxes framing to SAMEORIGIN.
	ModeModerate
	// ModeRelaxed reports CSP violations without enforcing the policy.
	// Used while rolling the policy out against real traffic.
	ModeRelaxed
)

func (m Mode) String() string {
	switch m {
	case ModeModerate:
		return "moderate"
	case ModeRelaxed:
		return "relaxed"
	default:
		return "strict"
	}
}

// Policy is the immutable per-mode header behavior record. Exactly one
// Policy is active per request; it is derived from the Mode and never
// mutated.
type Policy struct {
	// CSPReportOnly selects the Content-Security-Policy-Report-Only
	// header key instead of the enforcing one. Never both.
	CSPReportOnly bool

	EnforceHTTPS            bool
	StrictTransportSecurity bool
	ContentTypeOptions      bool

	// FrameOptions is the X-Frame-Options value: DENY or SAMEORIGIN.
	FrameOptions string

	XSSProtection bool
}

var modePolicies = map[Mode]Policy{
	ModeStrict: {
		CSPReportOnly:           false,
		EnforceHTTPS:            true,
		StrictTransportSecurity: true,
		ContentTypeOptions:      true,
		FrameOptions:            "DENY",
		XSSProtection:           true,
	},
	ModeModerate: {
		CSPReportOnly:           false,
		EnforceHTTPS:            true,
		StrictTransportSecurity: true,
		ContentTypeOptions:      true,
		FrameOptions:            "SAMEORIGIN",
		XSSProtection:           true,
	},
	ModeRelaxed: {
		CSPReportOnly:           true,
		EnforceHTTPS:            false,
		StrictTransportSecurity: true,
		ContentTypeOptions:      true,
		FrameOptions:            "SAMEORIGIN",
		XSSProtection:           true,
	},
}

// PolicyFor returns the immutable policy record for a mode.
func PolicyFor(m Mode) Policy {
	if p, ok := modePolicies[m]; ok {
		return p
	}
	return modePolicies[ModeStrict]
}

// ResolveMode maps a configuration string onto a Mode. Anything outside
// strict|moderate|relaxed (including empty) resolves to ModeStrict so a
// typo in config tightens headers instead of loosening them.
func ResolveMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "moderate":
		return ModeModerate
	case "relaxed":
		return ModeRelaxed
	default:
		return ModeStrict
	}
}
