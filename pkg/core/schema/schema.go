// Package schema holds the canonical extraction configuration: the fixed
// asset-class enumeration with accepted label aliases, the keyword phrase
// sets used to anchor sections, and the plausibility bounds applied during
// reconciliation. It is pure data: all drift between report years is
// absorbed here, never in extractor code.
package schema

import (
	"fmt"
	"strings"
)

// =============================================================================
// ASSET CLASSES - Fixed canonical enumeration
// =============================================================================

// AssetClass identifies one canonical asset category, independent of the
// label wording used by any given report year.
type AssetClass string

const (
	AssetInfrastructure  AssetClass = "INFRASTRUCTURE"
	AssetCash            AssetClass = "CASH"
	AssetMortgages       AssetClass = "MORTGAGES"
	AssetBonds           AssetClass = "BONDS"
	AssetEquities        AssetClass = "EQUITIES"
	AssetRealEstate      AssetClass = "REALESTATE"
	AssetHedgeFundsPE    AssetClass = "HEDGEFUNDS/PRIVATEEQUITY"
	AssetCurrencyOverlay AssetClass = "CURRENCYOVERLAY"
	AssetCollateral      AssetClass = "COLLATERAL"
)

// ClassSpec binds one canonical class to its ordered alias list.
// Aliases are matched case-insensitively, most specific first.
type ClassSpec struct {
	Class   AssetClass `json:"class" yaml:"class"`
	Aliases []string   `json:"aliases" yaml:"aliases"`
	// Core marks the classes whose joint presence allows deriving a
	// residual Cash percentage when Cash itself is not stated.
	Core bool `json:"core,omitempty" yaml:"core,omitempty"`
}

// =============================================================================
// SCHEMA - Complete configuration value
// =============================================================================

// Schema is the read-only configuration consumed by the locator, the
// extractors and the reconciler. Construct once, pass by value into the
// pipeline; nothing mutates it afterwards.
type Schema struct {
	Classes []ClassSpec `json:"classes" yaml:"classes"`

	// TotalAssetsAliases are accepted spellings of the balance-sheet
	// "total assets" row label.
	TotalAssetsAliases []string `json:"total_assets_aliases" yaml:"total_assets_aliases"`

	// Section anchor phrases, ordered most specific first.
	BalanceSheetKeywords []string `json:"balance_sheet_keywords" yaml:"balance_sheet_keywords"`
	CompositionKeywords  []string `json:"composition_keywords" yaml:"composition_keywords"`

	// PercentTolerance is the allowed deviation of the allocation sum
	// from 100 before a record is downgraded.
	PercentTolerance float64 `json:"percent_tolerance" yaml:"percent_tolerance"`

	// Soft absolute band for total assets, in the report currency unit.
	// Used only to flag, never to reject.
	TotalAssetsMin float64 `json:"total_assets_min" yaml:"total_assets_min"`
	TotalAssetsMax float64 `json:"total_assets_max" yaml:"total_assets_max"`

	// PriorYearBandPct is the allowed relative move against the prior
	// year's known total before the record is downgraded (e.g. 25 = ±25%).
	PriorYearBandPct float64 `json:"prior_year_band_pct" yaml:"prior_year_band_pct"`

	// CurrencyUnit names the unit totals are reported in.
	CurrencyUnit string `json:"currency_unit" yaml:"currency_unit"`

	// MaxRegionLines bounds a located region when no later heading ends it.
	MaxRegionLines int `json:"max_region_lines" yaml:"max_region_lines"`

	// NumericContextLines is how far past an anchor the locator looks for a
	// numeric token when demoting table-of-contents matches.
	NumericContextLines int `json:"numeric_context_lines" yaml:"numeric_context_lines"`
}

// Default returns the built-in configuration tuned against the 2020-2024
// report years.
func Default() Schema {
	return Schema{
		Classes: []ClassSpec{
			{Class: AssetInfrastructure, Aliases: []string{"Infrastructure investments", "Infrastructure"}, Core: true},
			{Class: AssetCash, Aliases: []string{"Liquidity deposits", "Liquidity / Receivables", "Liquidity", "Receivables"}},
			{Class: AssetMortgages, Aliases: []string{"Mortgages"}},
			{Class: AssetBonds, Aliases: []string{"Bonds"}, Core: true},
			{Class: AssetEquities, Aliases: []string{"Shares", "Equities"}, Core: true},
			{Class: AssetRealEstate, Aliases: []string{"Real estate investments", "Real estate"}, Core: true},
			{Class: AssetHedgeFundsPE, Aliases: []string{"Hedge funds and private equity", "Hedge Funds / Private Equity"}, Core: true},
			{Class: AssetCurrencyOverlay, Aliases: []string{"Currency overlay"}},
			{Class: AssetCollateral, Aliases: []string{"Collateral"}},
		},
		TotalAssetsAliases: []string{"Total assets"},
		BalanceSheetKeywords: []string{
			"Balance sheet",
		},
		CompositionKeywords: []string{
			"The composition of assets breaks down as follows:",
			"The composition of assets",
			"composition of assets",
		},
		PercentTolerance:    1.5,
		TotalAssetsMin:      10000,
		TotalAssetsMax:      50000,
		PriorYearBandPct:    25,
		CurrencyUnit:        "CHF millions",
		MaxRegionLines:      60,
		NumericContextLines: 12,
	}
}

// Validate checks structural sanity of a loaded schema.
func (s Schema) Validate() error {
	if len(s.Classes) == 0 {
		return fmt.Errorf("schema: no asset classes defined")
	}
	seen := make(map[AssetClass]bool)
	for _, c := range s.Classes {
		if c.Class == "" {
			return fmt.Errorf("schema: class with empty name")
		}
		if seen[c.Class] {
			return fmt.Errorf("schema: duplicate class %s", c.Class)
		}
		seen[c.Class] = true
		if len(c.Aliases) == 0 {
			return fmt.Errorf("schema: class %s has no aliases", c.Class)
		}
	}
	if len(s.TotalAssetsAliases) == 0 {
		return fmt.Errorf("schema: no total assets aliases")
	}
	if len(s.BalanceSheetKeywords) == 0 || len(s.CompositionKeywords) == 0 {
		return fmt.Errorf("schema: section keyword list empty")
	}
	if s.PercentTolerance <= 0 {
		return fmt.Errorf("schema: percent tolerance must be positive")
	}
	if s.TotalAssetsMin >= s.TotalAssetsMax {
		return fmt.Errorf("schema: total assets band inverted (%v >= %v)", s.TotalAssetsMin, s.TotalAssetsMax)
	}
	return nil
}

// IsCanonical reports whether class belongs to this schema's enumeration.
func (s Schema) IsCanonical(class AssetClass) bool {
	for _, c := range s.Classes {
		if c.Class == class {
			return true
		}
	}
	return false
}

// CoreClasses returns the classes participating in residual-cash derivation.
func (s Schema) CoreClasses() []AssetClass {
	var core []AssetClass
	for _, c := range s.Classes {
		if c.Core {
			core = append(core, c.Class)
		}
	}
	return core
}

// =============================================================================
// ALIAS RESOLUTION
// =============================================================================

// MatchKind distinguishes how a label resolved to a class.
type MatchKind string

const (
	MatchExact       MatchKind = "exact"
	MatchContainment MatchKind = "containment"
	MatchNone        MatchKind = "none"
)

// Resolution is the outcome of resolving a raw label against the schema.
type Resolution struct {
	Class      AssetClass
	Alias      string
	Kind       MatchKind
	Confidence float64
}

// Resolve maps a raw document label to a canonical class. Exact alias
// equality wins; otherwise a containment match is accepted for aliases long
// enough not to collide with unrelated text. Returns ok=false for labels
// outside the schema; the caller records these as warnings.
func (s Schema) Resolve(label string) (Resolution, bool) {
	norm := NormalizeLabel(label)
	if norm == "" {
		return Resolution{Kind: MatchNone}, false
	}

	// Pass 1: exact match, alias order is priority order.
	for _, c := range s.Classes {
		for _, alias := range c.Aliases {
			if norm == NormalizeLabel(alias) {
				return Resolution{Class: c.Class, Alias: alias, Kind: MatchExact, Confidence: 0.95}, true
			}
		}
	}

	// Pass 2: containment, either direction.
	for _, c := range s.Classes {
		for _, alias := range c.Aliases {
			na := NormalizeLabel(alias)
			if len(na) < 5 {
				continue
			}
			if strings.Contains(norm, na) || (len(norm) >= 5 && strings.Contains(na, norm)) {
				return Resolution{Class: c.Class, Alias: alias, Kind: MatchContainment, Confidence: 0.7}, true
			}
		}
	}

	return Resolution{Kind: MatchNone}, false
}

// MatchesTotalAssets reports whether a row or line label names the total
// assets figure. Footnote markers and capitalization are tolerated;
// "total liabilities" rows never match.
func (s Schema) MatchesTotalAssets(label string) bool {
	norm := NormalizeLabel(label)
	if strings.Contains(norm, "total liabilities") {
		return false
	}
	for _, alias := range s.TotalAssetsAliases {
		if strings.Contains(norm, NormalizeLabel(alias)) {
			return true
		}
	}
	return false
}

// NormalizeLabel lowercases, collapses whitespace and strips trailing
// punctuation and footnote markers so that "Bonds ¹" and "bonds:" compare
// equal.
func NormalizeLabel(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	label = strings.Join(strings.Fields(label), " ")
	label = strings.ReplaceAll(label, " / ", "/")
	label = strings.TrimRight(label, ",:;.*†‡¹²³0123456789 ")
	return label
}
