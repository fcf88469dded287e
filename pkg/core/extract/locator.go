package extract

import (
	"strings"

	"pension_extraction/pkg/core/document"
	"pension_extraction/pkg/core/schema"
)

// =============================================================================
// SECTION LOCATOR - Keyword-driven region search
// =============================================================================

// SectionLocator finds bounded document regions by scanning text lines and
// table headers for ordered keyword phrases, most specific first. A nil
// result is the normal "not found" outcome, handled by the reconciler,
// never an error.
type SectionLocator struct {
	cfg schema.Schema
}

// NewSectionLocator creates a locator over the given schema configuration.
func NewSectionLocator(cfg schema.Schema) *SectionLocator {
	return &SectionLocator{cfg: cfg}
}

// anchor is one qualifying keyword hit prior to selection.
type anchor struct {
	line       int // line index; for table anchors, first line of the page
	tableIndex int // -1 for text anchors
	phrase     string
	rank       int  // index into the keyword list; lower = more specific
	evidence   bool // numeric/percent shaped token in the following context
}

// Locate scans the view for the given ordered phrase list and returns the
// bounded region around the best anchor, or nil when no anchor matches.
//
// Selection: anchors backed by numeric evidence in the following context
// lines are preferred over bare heading matches; this demotes
// table-of-contents entries, which repeat the heading but carry only page
// numbers. Among equally-evidenced anchors the more specific phrase wins,
// then the earlier position.
func (l *SectionLocator) Locate(view *document.View, keywords []string) *LocatedRegion {
	anchors := l.collectAnchors(view, keywords)
	if len(anchors) == 0 {
		return nil
	}

	best := anchors[0]
	for _, a := range anchors[1:] {
		if better(a, best) {
			best = a
		}
	}

	region := l.boundRegion(view, best, keywords)
	return region
}

func better(a, b anchor) bool {
	if a.evidence != b.evidence {
		return a.evidence
	}
	if a.rank != b.rank {
		return a.rank < b.rank
	}
	return a.line < b.line
}

// collectAnchors gathers every line and table-header keyword hit.
func (l *SectionLocator) collectAnchors(view *document.View, keywords []string) []anchor {
	var anchors []anchor

	for i, line := range view.Lines {
		rank, phrase := matchPhrase(line.Text, keywords)
		if rank < 0 {
			continue
		}
		anchors = append(anchors, anchor{
			line:       i,
			tableIndex: -1,
			phrase:     phrase,
			rank:       rank,
			evidence:   l.hasContextEvidence(view, i),
		})
	}

	for ti, table := range view.Tables {
		rank, phrase := tableHeaderMatch(table, keywords)
		if rank < 0 {
			continue
		}
		anchors = append(anchors, anchor{
			line:       firstLineOnPage(view, table.Page),
			tableIndex: ti,
			phrase:     phrase,
			rank:       rank,
			evidence:   tableHasNumericCell(table),
		})
	}

	return anchors
}

// matchPhrase returns the most specific phrase contained in text, or -1.
func matchPhrase(text string, keywords []string) (int, string) {
	lower := strings.ToLower(text)
	for rank, phrase := range keywords {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			return rank, phrase
		}
	}
	return -1, ""
}

// tableHeaderMatch checks the first two rows of a table for a phrase.
func tableHeaderMatch(table document.Table, keywords []string) (int, string) {
	rows := table.Cells
	if len(rows) > 2 {
		rows = rows[:2]
	}
	bestRank, bestPhrase := -1, ""
	for _, row := range rows {
		for _, cell := range row {
			if rank, phrase := matchPhrase(cell, keywords); rank >= 0 {
				if bestRank < 0 || rank < bestRank {
					bestRank, bestPhrase = rank, phrase
				}
			}
		}
	}
	return bestRank, bestPhrase
}

// hasContextEvidence looks for an amount or percent shaped token within the
// configured number of lines after the anchor.
func (l *SectionLocator) hasContextEvidence(view *document.View, anchorLine int) bool {
	end := anchorLine + l.cfg.NumericContextLines
	if end > len(view.Lines) {
		end = len(view.Lines)
	}
	for i := anchorLine; i < end; i++ {
		if HasNumericEvidence(view.Lines[i].Text) {
			return true
		}
	}
	// A table on the anchor's page also counts as evidence.
	page := view.PageOfLine(anchorLine)
	for _, t := range view.Tables {
		if t.Page == page && tableHasNumericCell(t) {
			return true
		}
	}
	return false
}

func tableHasNumericCell(table document.Table) bool {
	for _, row := range table.Cells {
		for _, cell := range row {
			if HasNumericEvidence(cell) {
				return true
			}
		}
	}
	return false
}

func firstLineOnPage(view *document.View, page int) int {
	for i, line := range view.Lines {
		if line.Page >= page {
			return i
		}
	}
	return len(view.Lines)
}

// boundRegion fixes the region's end: the next recognized section heading
// (any other configured anchor phrase), the configured maximum span, or end
// of document, whichever comes first.
func (l *SectionLocator) boundRegion(view *document.View, a anchor, keywords []string) *LocatedRegion {
	stopPhrases := l.otherHeadings(keywords)

	end := a.line + l.cfg.MaxRegionLines
	if end > len(view.Lines) {
		end = len(view.Lines)
	}
	for i := a.line + 1; i < end; i++ {
		if rank, _ := matchPhrase(view.Lines[i].Text, stopPhrases); rank >= 0 {
			end = i
			break
		}
	}

	region := &LocatedRegion{
		StartLine:  a.line,
		EndLine:    end,
		Anchor:     a.phrase,
		AnchorLine: a.line,
		Page:       view.PageOfLine(a.line),
		Confidence: anchorConfidence(a),
	}

	pageStart := view.PageOfLine(a.line)
	pageEnd := pageStart
	if end > a.line && end-1 < len(view.Lines) {
		pageEnd = view.PageOfLine(end - 1)
	}
	for ti, t := range view.Tables {
		if a.tableIndex == ti || (t.Page >= pageStart && t.Page <= pageEnd) {
			region.TableIndexes = append(region.TableIndexes, ti)
		}
	}

	return region
}

// otherHeadings returns every configured anchor phrase not in the current
// keyword set; these terminate a region.
func (l *SectionLocator) otherHeadings(current []string) []string {
	in := func(p string, set []string) bool {
		for _, s := range set {
			if strings.EqualFold(s, p) {
				return true
			}
		}
		return false
	}
	var stops []string
	for _, p := range append(append([]string{}, l.cfg.BalanceSheetKeywords...), l.cfg.CompositionKeywords...) {
		if !in(p, current) {
			stops = append(stops, p)
		}
	}
	return stops
}

// anchorConfidence scores an anchor by phrase specificity and evidence.
func anchorConfidence(a anchor) float64 {
	conf := 1.0 - 0.12*float64(a.rank)
	if conf < 0.5 {
		conf = 0.5
	}
	if !a.evidence {
		conf *= 0.6
	}
	return conf
}
