// Package ingest constructs DocumentViews from decoder output: HTML
// renditions of annual reports and decoder interchange JSON. Fetching and
// binary PDF decoding happen upstream; this package only normalizes
// already-decoded content.
package ingest

import (
	"io"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pension_extraction/pkg/core/document"
)

// =============================================================================
// HTML INGESTION - DocumentView from an HTML rendition
// =============================================================================

// lineSelector captures the block elements that become text lines. Table
// content is handled separately and excluded here.
const lineSelector = "h1, h2, h3, h4, h5, p, li"

// FromHTML builds a DocumentView from an HTML rendition of a report.
// Page structure is taken from div.page / section.page wrappers when the
// decoder emits them; otherwise the whole document counts as page 1.
func FromHTML(r io.Reader) (*document.View, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	view := &document.View{}

	pages := doc.Find("div.page, section.page")
	if pages.Length() == 0 {
		parsePage(doc.Selection, 1, view)
	} else {
		pages.Each(func(i int, page *goquery.Selection) {
			parsePage(page, i+1, view)
		})
	}

	log.Printf("[Ingest] HTML rendition: %d pages, %d lines, %d tables",
		maxPage(view), len(view.Lines), len(view.Tables))

	if err := view.Validate(); err != nil {
		return nil, err
	}
	return view, nil
}

// parsePage appends one page's lines and tables to the view.
func parsePage(page *goquery.Selection, pageNum int, view *document.View) {
	page.Find(lineSelector).Each(func(_ int, el *goquery.Selection) {
		// Text inside tables belongs to the table grid, not the line flow.
		if el.Closest("table").Length() > 0 {
			return
		}
		text := collapseSpace(el.Text())
		if text == "" {
			return
		}
		view.Lines = append(view.Lines, document.Line{Text: text, Page: pageNum})
	})

	page.Find("table").Each(func(_ int, table *goquery.Selection) {
		grid := parseTableGrid(table)
		if len(grid) == 0 {
			return
		}
		view.Tables = append(view.Tables, document.Table{Page: pageNum, Cells: grid})
	})
}

// parseTableGrid flattens a table element into a grid of trimmed cell
// strings, skipping rows with no content.
func parseTableGrid(table *goquery.Selection) [][]string {
	var grid [][]string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var row []string
		empty := true
		tr.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
			text := collapseSpace(cell.Text())
			if text != "" {
				empty = false
			}
			row = append(row, text)
		})
		if !empty {
			grid = append(grid, row)
		}
	})
	return grid
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func maxPage(view *document.View) int {
	max := 0
	for _, l := range view.Lines {
		if l.Page > max {
			max = l.Page
		}
	}
	for _, t := range view.Tables {
		if t.Page > max {
			max = t.Page
		}
	}
	return max
}
