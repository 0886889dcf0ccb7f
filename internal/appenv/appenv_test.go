package appenv

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want Environment
	}{
		{"production", Production},
		{"development", Development},
		{"dev", Development},
		{"test", Test},
		{"  Development ", Development},
		{"PRODUCTION", Production},
		// unknown or unset must resolve to the strict branch
		{"", Production},
		{"staging", Production},
		{"prod ", Production},
		{"null", Production},
	}

	for _, tc := range cases {
		if got := Parse(tc.in); got != tc.want {
			t.Errorf("Parse(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestClassificationHelpers(t *testing.T) {
	if !Production.IsProduction() {
		t.Error("Production.IsProduction() = false")
	}
	if Production.IsDevelopment() {
		t.Error("Production.IsDevelopment() = true")
	}
	if !Development.IsDevelopment() {
		t.Error("Development.IsDevelopment() = false")
	}
	if Test.IsProduction() {
		t.Error("Test.IsProduction() = true")
	}
}

func TestString(t *testing.T) {
	if got := Development.String(); got != "development" {
		t.Errorf("Development.String() = %q", got)
	}
	if got := Environment(99).String(); got != "production" {
		t.Errorf("unknown Environment.String() = %q, want production", got)
	}
}
