// Package schema - Test Suite for alias resolution and label normalization
package schema

import (
	"testing"
)

// =============================================================================
// LABEL NORMALIZATION TESTS
// =============================================================================

func TestNormalizeLabel(t *testing.T) {
	tests := []struct {
		name     string
		label    string
		expected string
	}{
		{"Lowercase", "Bonds", "bonds"},
		{"Trailing colon", "Bonds:", "bonds"},
		{"Footnote marker", "Bonds ¹", "bonds"},
		{"Footnote digit", "Real estate investments 2", "real estate investments"},
		{"Collapsed whitespace", "  Real   estate  ", "real estate"},
		{"Slash spacing", "Liquidity / Receivables", "liquidity/receivables"},
		{"Asterisk", "Shares*", "shares"},
		{"Empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeLabel(tt.label); got != tt.expected {
				t.Errorf("NormalizeLabel(%q) = %q, want %q", tt.label, got, tt.expected)
			}
		})
	}
}

// =============================================================================
// ALIAS RESOLUTION TESTS
// =============================================================================

func TestResolve(t *testing.T) {
	s := Default()

	tests := []struct {
		name      string
		label     string
		wantClass AssetClass
		wantKind  MatchKind
		wantOK    bool
	}{
		// Exact matches across report-year wordings
		{"Shares exact", "Shares", AssetEquities, MatchExact, true},
		{"Equities exact", "Equities", AssetEquities, MatchExact, true},
		{"Case insensitive", "BONDS", AssetBonds, MatchExact, true},
		{"Slash alias", "Hedge Funds / Private Equity", AssetHedgeFundsPE, MatchExact, true},
		{"And alias", "Hedge funds and private equity", AssetHedgeFundsPE, MatchExact, true},
		{"Liquidity variant", "Liquidity deposits", AssetCash, MatchExact, true},
		{"Footnote tolerated", "Bonds ¹", AssetBonds, MatchExact, true},

		// Containment
		{"Label superset", "Total infrastructure investments", AssetInfrastructure, MatchContainment, true},
		{"Real estate prefix", "Real estate investments, directly held", AssetRealEstate, MatchContainment, true},

		// Outside the schema
		{"Unknown label", "Commodities", "", MatchNone, false},
		{"Empty label", "", "", MatchNone, false},
		{"Short noise", "abc", "", MatchNone, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, ok := s.Resolve(tt.label)
			if ok != tt.wantOK {
				t.Fatalf("Resolve(%q) ok = %v, want %v", tt.label, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if res.Class != tt.wantClass {
				t.Errorf("Resolve(%q) class = %s, want %s", tt.label, res.Class, tt.wantClass)
			}
			if res.Kind != tt.wantKind {
				t.Errorf("Resolve(%q) kind = %s, want %s", tt.label, res.Kind, tt.wantKind)
			}
			if res.Confidence <= 0 || res.Confidence > 1 {
				t.Errorf("Resolve(%q) confidence = %v, want (0,1]", tt.label, res.Confidence)
			}
		})
	}
}

func TestResolveExactBeatsContainment(t *testing.T) {
	s := Default()
	res, ok := s.Resolve("Infrastructure")
	if !ok || res.Kind != MatchExact {
		t.Fatalf("Resolve(Infrastructure) = %+v ok=%v, want exact match", res, ok)
	}
	if res.Confidence <= 0.9 {
		t.Errorf("exact match confidence = %v, want > 0.9", res.Confidence)
	}
}

// =============================================================================
// TOTAL ASSETS LABEL TESTS
// =============================================================================

func TestMatchesTotalAssets(t *testing.T) {
	s := Default()

	tests := []struct {
		name  string
		label string
		want  bool
	}{
		{"Plain", "Total assets", true},
		{"With footnote", "Total assets ¹", true},
		{"In sentence", "Total assets at year end", true},
		{"Case", "TOTAL ASSETS", true},
		{"Liabilities never", "Total liabilities", false},
		{"Unrelated", "Net assets available", false},
		{"Empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.MatchesTotalAssets(tt.label); got != tt.want {
				t.Errorf("MatchesTotalAssets(%q) = %v, want %v", tt.label, got, tt.want)
			}
		})
	}
}

// =============================================================================
// SCHEMA VALIDATION TESTS
// =============================================================================

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v, want nil", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Schema)
	}{
		{"No classes", func(s *Schema) { s.Classes = nil }},
		{"Duplicate class", func(s *Schema) { s.Classes = append(s.Classes, s.Classes[0]) }},
		{"Class without aliases", func(s *Schema) { s.Classes[0].Aliases = nil }},
		{"No total aliases", func(s *Schema) { s.TotalAssetsAliases = nil }},
		{"No section keywords", func(s *Schema) { s.BalanceSheetKeywords = nil }},
		{"Zero tolerance", func(s *Schema) { s.PercentTolerance = 0 }},
		{"Inverted band", func(s *Schema) { s.TotalAssetsMin, s.TotalAssetsMax = 50000, 10000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(&s)
			if err := s.Validate(); err == nil {
				t.Errorf("Validate() = nil, want error")
			}
		})
	}
}

func TestCoreClasses(t *testing.T) {
	core := Default().CoreClasses()
	if len(core) != 5 {
		t.Fatalf("CoreClasses() returned %d classes, want 5", len(core))
	}
	for _, c := range core {
		if c == AssetCash {
			t.Errorf("CASH must not be a core class, it is derived from them")
		}
	}
}
