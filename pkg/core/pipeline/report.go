package pipeline

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"pension_extraction/pkg/core/extract"
	"pension_extraction/pkg/core/schema"
	"pension_extraction/pkg/core/utils"
)

// =============================================================================
// REVIEW REPORT - Human-readable markdown for one record
// =============================================================================

// ReviewReport renders a record as a markdown document for analyst review.
// Output is deterministic: classes appear in sorted order.
func ReviewReport(rec extract.Record) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Extraction Review: %d\n\n", rec.ReportingYear)
	fmt.Fprintf(&b, "- **Status:** %s\n", rec.Status)
	if rec.SourceDigest != "" {
		fmt.Fprintf(&b, "- **Source digest:** `%s`\n", rec.SourceDigest)
	}

	b.WriteString("\n## Total Assets\n\n")
	if rec.TotalAssets.Value == nil {
		b.WriteString("Not extracted.\n")
	} else {
		fmt.Fprintf(&b, "**%.0f** %s (confidence %.2f)\n",
			*rec.TotalAssets.Value, rec.TotalAssets.Unit, rec.TotalAssets.Confidence)
	}

	b.WriteString("\n## Asset Allocation\n\n")
	if len(rec.Allocations) == 0 {
		b.WriteString("No classes extracted.\n")
	} else {
		b.WriteString("| Class | Percent | Confidence | Derived |\n")
		b.WriteString("|---|---|---|---|\n")
		classes := make([]schema.AssetClass, 0, len(rec.Allocations))
		for c := range rec.Allocations {
			classes = append(classes, c)
		}
		sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })
		for _, c := range classes {
			f := rec.Allocations[c]
			derived := ""
			if f.Derived {
				derived = "yes"
			}
			fmt.Fprintf(&b, "| %s | %.1f%% | %.2f | %s |\n", c, f.Percent, f.Confidence, derived)
		}
	}

	if len(rec.Warnings) > 0 {
		b.WriteString("\n## Warnings\n\n")
		for _, w := range rec.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	report := b.String()
	if !utils.ValidateMarkdown(report) {
		log.Printf("[Pipeline] review report for %d failed markdown validation", rec.ReportingYear)
	}
	return report
}
