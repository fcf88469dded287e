package extract

import (
	"regexp"
	"strings"

	"pension_extraction/pkg/core/document"
	"pension_extraction/pkg/core/schema"
)

// =============================================================================
// ASSET ALLOCATION EXTRACTOR
// =============================================================================

// AllocationExtractor reads per-class percentages out of a located
// composition region. Two shapes are supported: composition tables
// (label row + percent cell) and chart-legend text such as "Bonds 25.3%",
// possibly several entries on one line.
type AllocationExtractor struct {
	cfg schema.Schema
}

// NewAllocationExtractor creates an extractor over the given schema.
func NewAllocationExtractor(cfg schema.Schema) *AllocationExtractor {
	return &AllocationExtractor{cfg: cfg}
}

// legendEntry captures "label 25.3%" runs in free text. The label group is
// deliberately greedy-minimal so two entries on one line split cleanly.
var legendEntry = regexp.MustCompile(`([\p{L}][\p{L}&/.\- ]*?)\s*:?\s+(\d{1,3}(?:[.,]\d+)?)\s*%`)

// Extract gathers one candidate per canonical class found in the region.
// Labels that resolve to no schema class are skipped with a warning, as are
// duplicate sightings of a class (the higher-confidence candidate is kept).
func (e *AllocationExtractor) Extract(view *document.View, region *LocatedRegion) (map[schema.AssetClass]*Candidate, []string) {
	if region == nil {
		return nil, nil
	}

	found := make(map[schema.AssetClass]*Candidate)
	var warnings []string

	for _, ti := range region.TableIndexes {
		warnings = append(warnings, e.fromTable(view.Tables[ti], ti, found)...)
	}

	for i := region.StartLine; i < region.EndLine && i < len(view.Lines); i++ {
		warnings = append(warnings, e.fromLegendLine(view.Lines[i].Text, i, found)...)
	}

	return found, warnings
}

// fromTable walks a composition table: first cell is the class label, the
// percent lives in the first cell carrying a "%" sign, or failing that the
// first cell that parses inside [0,100].
func (e *AllocationExtractor) fromTable(t document.Table, tableIndex int, found map[schema.AssetClass]*Candidate) []string {
	var warnings []string

	for _, row := range t.Cells {
		if len(row) < 2 {
			continue
		}
		label := strings.TrimSpace(row[0])
		if label == "" || e.cfg.MatchesTotalAssets(label) {
			continue
		}

		res, ok := e.cfg.Resolve(label)
		if !ok {
			if looksLikeClassRow(row) {
				warnings = append(warnings, Warnf("allocation", "unrecognized label %q in table %d", label, tableIndex))
			}
			continue
		}

		raw, ok := percentCell(row[1:])
		if !ok {
			continue
		}
		v, err := ParsePercent(raw)
		if err != nil {
			warnings = append(warnings, Warnf("allocation", "%s: %v", res.Class, err))
			continue
		}

		cand := &Candidate{
			Value:      v,
			Raw:        raw,
			Label:      label,
			Method:     "table-row",
			TableIndex: tableIndex,
			Confidence: res.Confidence,
		}
		warnings = append(warnings, keep(found, res.Class, cand)...)
	}

	return warnings
}

// fromLegendLine extracts "label N%" pairs from one text line.
func (e *AllocationExtractor) fromLegendLine(text string, lineIdx int, found map[schema.AssetClass]*Candidate) []string {
	var warnings []string

	for _, m := range legendEntry.FindAllStringSubmatch(text, -1) {
		label, raw := strings.TrimSpace(m[1]), m[2]
		res, ok := e.cfg.Resolve(label)
		if !ok {
			// The match already carries a percent-shaped value, so an
			// unresolved label is a real sighting, not prose noise.
			warnings = append(warnings, Warnf("allocation", "unrecognized label %q on line %d", label, lineIdx))
			continue
		}
		v, err := ParsePercent(raw)
		if err != nil {
			warnings = append(warnings, Warnf("allocation", "%s: %v", res.Class, err))
			continue
		}

		cand := &Candidate{
			Value:      v,
			Raw:        raw + "%",
			Label:      label,
			Method:     "legend",
			Line:       lineIdx,
			TableIndex: -1,
			Confidence: res.Confidence * 0.85,
		}
		warnings = append(warnings, keep(found, res.Class, cand)...)
	}

	return warnings
}

// keep stores cand under class, preferring the higher-confidence sighting
// when the class was already seen. Every duplicate discard is warned about;
// a disagreement between the two sightings gets the more detailed message.
func keep(found map[schema.AssetClass]*Candidate, class schema.AssetClass, cand *Candidate) []string {
	prev, seen := found[class]
	if !seen {
		found[class] = cand
		return nil
	}
	var warnings []string
	if prev.Value != cand.Value {
		warnings = append(warnings, Warnf("allocation",
			"%s seen twice with differing values (%v vs %v), keeping higher-confidence match",
			class, prev.Value, cand.Value))
	} else {
		warnings = append(warnings, Warnf("allocation",
			"%s seen twice at %v, discarding the lower-confidence duplicate", class, cand.Value))
	}
	if cand.Confidence > prev.Confidence {
		found[class] = cand
	}
	return warnings
}

// percentCell picks the percent-bearing cell of a table row: an explicit
// "%" cell wins, otherwise the first percent-shaped value.
func percentCell(cells []string) (string, bool) {
	for _, c := range cells {
		if strings.Contains(c, "%") && strings.ContainsAny(c, "0123456789") {
			return strings.TrimSpace(c), true
		}
	}
	for _, c := range cells {
		s := strings.TrimSpace(c)
		if percentShaped.MatchString(s) {
			if v, err := ParsePercent(s); err == nil && v <= 100 {
				return s, true
			}
		}
	}
	return "", false
}

// looksLikeClassRow filters warning noise: only rows that actually carry a
// percent-shaped value deserve an "unrecognized label" diagnostic.
func looksLikeClassRow(row []string) bool {
	_, ok := percentCell(row[1:])
	return ok
}
