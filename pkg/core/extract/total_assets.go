package extract

import (
	"regexp"
	"strconv"
	"strings"

	"pension_extraction/pkg/core/document"
	"pension_extraction/pkg/core/schema"
)

// =============================================================================
// TOTAL ASSETS EXTRACTOR
// =============================================================================

// TotalAssetsExtractor pulls the scalar total-assets figure out of a located
// balance-sheet region. Table rows are preferred over raw text lines; within
// a row the column matching the reporting year wins, falling back to the
// left-most numeric column with lowered confidence when no year header is
// determinable.
type TotalAssetsExtractor struct {
	cfg schema.Schema
}

// NewTotalAssetsExtractor creates an extractor over the given schema.
func NewTotalAssetsExtractor(cfg schema.Schema) *TotalAssetsExtractor {
	return &TotalAssetsExtractor{cfg: cfg}
}

var yearToken = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// Extract returns the best total-assets candidate in the region, or nil
// when no row qualifies. Parser failures on one candidate row fall through
// to the next; the accompanying warnings are only populated when extraction
// gives up entirely.
func (e *TotalAssetsExtractor) Extract(view *document.View, region *LocatedRegion, reportingYear int) (*Candidate, []string) {
	if region == nil {
		return nil, nil
	}

	var failures []string

	for _, ti := range region.TableIndexes {
		if c, warns := e.fromTable(view.Tables[ti], ti, reportingYear); c != nil {
			return c, nil
		} else {
			failures = append(failures, warns...)
		}
	}

	for i := region.StartLine; i < region.EndLine && i < len(view.Lines); i++ {
		line := view.Lines[i]
		if !e.cfg.MatchesTotalAssets(line.Text) {
			continue
		}
		if c, warns := e.fromLine(view, i, region.StartLine, reportingYear); c != nil {
			return c, nil
		} else {
			failures = append(failures, warns...)
		}
	}

	return nil, failures
}

// fromTable scans one table for a total-assets row.
func (e *TotalAssetsExtractor) fromTable(t document.Table, tableIndex, reportingYear int) (*Candidate, []string) {
	colYears := headerYears(t)
	var failures []string

	for _, row := range t.Cells {
		if len(row) < 2 || !e.cfg.MatchesTotalAssets(row[0]) {
			continue
		}

		type cell struct {
			col int
			raw string
		}
		var numeric []cell
		for col := 1; col < len(row); col++ {
			if strings.TrimSpace(row[col]) != "" && HasNumericEvidence(row[col]) {
				numeric = append(numeric, cell{col, row[col]})
			}
		}
		if len(numeric) == 0 {
			continue
		}

		// Order candidates: reporting-year column first, then left to right.
		chosen := numeric
		confidence := 0.7
		if year, ok := colYears[numeric[0].col]; !ok || year != reportingYear {
			for idx, c := range numeric {
				if reportingYear != 0 && colYears[c.col] == reportingYear {
					chosen = append([]cell{c}, append(numeric[:idx:idx], numeric[idx+1:]...)...)
					confidence = 0.9
					break
				}
			}
		} else {
			confidence = 0.9
		}

		for _, c := range chosen {
			v, err := ParseAmount(c.raw)
			if err != nil {
				failures = append(failures, Warnf("total assets", "table %d: %v", tableIndex, err))
				continue
			}
			return &Candidate{
				Value:      v,
				Raw:        c.raw,
				Label:      strings.TrimSpace(row[0]),
				Method:     "table-row",
				TableIndex: tableIndex,
				Confidence: confidence,
			}, nil
		}
	}

	return nil, failures
}

// headerYears maps column index → year for the first table row that carries
// year tokens.
func headerYears(t document.Table) map[int]int {
	for _, row := range t.Cells {
		years := make(map[int]int)
		for col, cellText := range row {
			if m := yearToken.FindAllString(cellText, -1); len(m) > 0 {
				y, _ := strconv.Atoi(m[len(m)-1])
				years[col] = y
			}
		}
		if len(years) > 0 {
			return years
		}
	}
	return nil
}

// fromLine reconstructs values from a text line such as
// "Total assets 13 432 13 083": current year first, prior year second in
// the report family this engine targets. When a nearby header line carries
// year tokens, the value aligned with the reporting year is chosen.
func (e *TotalAssetsExtractor) fromLine(view *document.View, lineIdx, regionStart, reportingYear int) (*Candidate, []string) {
	text := view.Lines[lineIdx].Text

	rest := textAfterLabel(text, e.cfg.TotalAssetsAliases)
	values := JoinNumericTokens(strings.Fields(rest))
	if len(values) == 0 {
		return nil, []string{Warnf("total assets", "line %d: label matched but no numeric tokens", lineIdx)}
	}

	pick := 0
	confidence := 0.7
	if years := nearbyYearHeader(view, lineIdx, regionStart); len(years) > 0 {
		for idx, y := range years {
			if y == reportingYear && idx < len(values) {
				pick = idx
				confidence = 0.85
				break
			}
		}
	}

	var failures []string
	for off := 0; off < len(values); off++ {
		idx := (pick + off) % len(values)
		v, err := ParseAmount(values[idx])
		if err != nil {
			failures = append(failures, Warnf("total assets", "line %d: %v", lineIdx, err))
			continue
		}
		if off > 0 {
			confidence = 0.6
		}
		return &Candidate{
			Value:      v,
			Raw:        values[idx],
			Label:      strings.TrimSpace(text),
			Method:     "text-line",
			Line:       lineIdx,
			TableIndex: -1,
			Confidence: confidence,
		}, nil
	}
	return nil, failures
}

// textAfterLabel strips everything up to and including the matched alias.
func textAfterLabel(text string, aliases []string) string {
	lower := strings.ToLower(text)
	for _, alias := range aliases {
		if idx := strings.Index(lower, strings.ToLower(alias)); idx >= 0 {
			return text[idx+len(alias):]
		}
	}
	return text
}

// nearbyYearHeader walks backwards a few lines looking for a header with at
// least two year tokens (e.g. "31.12.2024 31.12.2023") and returns the
// years in column order.
func nearbyYearHeader(view *document.View, lineIdx, regionStart int) []int {
	lowest := lineIdx - 6
	if lowest < regionStart {
		lowest = regionStart
	}
	for i := lineIdx - 1; i >= lowest; i-- {
		matches := yearToken.FindAllString(view.Lines[i].Text, -1)
		if len(matches) >= 2 {
			years := make([]int, 0, len(matches))
			for _, m := range matches {
				y, _ := strconv.Atoi(m)
				years = append(years, y)
			}
			return years
		}
	}
	return nil
}
