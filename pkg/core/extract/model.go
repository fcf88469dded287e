// Package extract implements the Document Fact Extraction Engine: keyword
// section location, locale-aware numeric parsing, the two field extractors
// (total assets, asset allocation) and the reconciler that merges their
// candidates into one validated ExtractionRecord.
package extract

import (
	"fmt"

	"pension_extraction/pkg/core/schema"
)

// =============================================================================
// LOCATED REGION - Bounded slice of a DocumentView
// =============================================================================

// LocatedRegion is a contiguous slice of a DocumentView believed to contain
// one semantic section, plus the keyword evidence that justified the match.
type LocatedRegion struct {
	// Line range, half-open [StartLine, EndLine).
	StartLine int `json:"start_line"`
	EndLine   int `json:"end_line"`

	// Tables whose page falls inside the region's page span.
	TableIndexes []int `json:"table_indexes,omitempty"`

	// Anchor evidence.
	Anchor     string  `json:"anchor"`
	AnchorLine int     `json:"anchor_line"`
	Page       int     `json:"page"`
	Confidence float64 `json:"confidence"`
}

// =============================================================================
// CANDIDATE - Tentative extracted value with provenance
// =============================================================================

// Candidate is a raw extracted value prior to validation: the parsed number,
// the text span it came from, how it was obtained, and a parse confidence.
type Candidate struct {
	Value float64 `json:"value"`
	Raw   string  `json:"raw"`
	Label string  `json:"label,omitempty"`

	// Method is one of "table-row", "text-line", "legend", "derived".
	Method string `json:"method"`

	// Provenance: line index for text matches, table index for table
	// matches (-1 when not applicable).
	Line       int     `json:"line,omitempty"`
	TableIndex int     `json:"table_index"`
	Confidence float64 `json:"confidence"`
}

// =============================================================================
// EXTRACTION RECORD - Final output
// =============================================================================

// Status is the terminal trust classification of a record.
type Status string

const (
	StatusOK            Status = "ok"
	StatusLowConfidence Status = "low-confidence"
	StatusFailed        Status = "failed"
)

// TotalAssetsField carries the reconciled total-assets figure. Value is nil
// when the figure could not be extracted.
type TotalAssetsField struct {
	Value      *float64 `json:"value"`
	Unit       string   `json:"unit"`
	Confidence float64  `json:"confidence"`
}

// AllocationField carries one reconciled allocation percentage.
type AllocationField struct {
	Percent    float64 `json:"percent"`
	Confidence float64 `json:"confidence"`
	// Derived marks values computed as a residual rather than read from
	// the document.
	Derived bool `json:"derived,omitempty"`
}

// Record is the engine's sole output contract with downstream consumers:
// one immutable record per document. Identical DocumentViews and schemas
// yield byte-identical records.
type Record struct {
	ReportingYear int                                    `json:"reporting_year"`
	TotalAssets   TotalAssetsField                       `json:"total_assets"`
	Allocations   map[schema.AssetClass]AllocationField  `json:"allocations"`
	Status        Status                                 `json:"status"`
	Warnings      []string                               `json:"warnings"`
	// SourceDigest fingerprints the DocumentView the record came from.
	SourceDigest string `json:"source_digest,omitempty"`
}

// Warnf formats a diagnostic naming the offending field and reason, in the
// "field: reason" shape downstream reviewers expect.
func Warnf(field, format string, args ...interface{}) string {
	return field + ": " + fmt.Sprintf(format, args...)
}
