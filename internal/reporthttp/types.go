package reporthttp

// reportEnvelope is the wire format browsers POST to the report-uri
// endpoint: a single "csp-report" object.
type reportEnvelope struct {
	Report *Report `json:"csp-report"`
}

// Report is the browser-generated CSP violation report. Field names
// follow the CSP2 report-uri format; every field is attacker-influenced
// and treated as untrusted text.
type Report struct {
	DocumentURI        string `json:"document-uri"`
	Referrer           string `json:"referrer"`
	ViolatedDirective  string `json:"violated-directive"`
	EffectiveDirective string `json:"effective-directive"`
	OriginalPolicy     string `json:"original-policy"`
	BlockedURI         string `json:"blocked-uri"`
	Disposition        string `json:"disposition"`
	StatusCode         int    `json:"status-code"`
	ScriptSample       string `json:"script-sample"`
	SourceFile         string `json:"source-file"`
	LineNumber         int    `json:"line-number"`
	ColumnNumber       int    `json:"column-number"`
}
