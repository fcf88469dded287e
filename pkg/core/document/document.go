// Package document defines the DocumentView: the engine's read-only input
// model for one already-decoded annual report. External collaborators
// (HTML renditions, decoder interchange files) construct a View; the
// extraction engine only reads it.
package document

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Line is one text line of the decoded report with position metadata.
type Line struct {
	Text string `json:"text"`
	Page int    `json:"page"`
	// Y is the optional vertical position on the page, in decoder units.
	// Zero means unknown.
	Y float64 `json:"y,omitempty"`
}

// Table is one extracted table: a rectangular grid of cell strings and the
// page it appeared on.
type Table struct {
	Page  int        `json:"page"`
	Cells [][]string `json:"cells"`
}

// Rows returns the number of rows in the table.
func (t Table) Rows() int { return len(t.Cells) }

// Cols returns the width of the widest row. Decoders occasionally emit
// ragged grids; consumers index defensively.
func (t Table) Cols() int {
	max := 0
	for _, row := range t.Cells {
		if len(row) > max {
			max = len(row)
		}
	}
	return max
}

// View is an immutable representation of one decoded document: ordered text
// lines and ordered table grids. Owned by the caller for the duration of an
// extraction call; the engine never mutates it.
type View struct {
	Lines  []Line  `json:"lines"`
	Tables []Table `json:"tables"`
}

// Validate rejects structurally broken views early so extraction failures
// point at the decoder, not the engine.
func (v *View) Validate() error {
	if len(v.Lines) == 0 && len(v.Tables) == 0 {
		return fmt.Errorf("document view is empty")
	}
	for i, t := range v.Tables {
		if len(t.Cells) == 0 {
			return fmt.Errorf("table %d has no rows", i)
		}
	}
	return nil
}

// PageOfLine returns the page of line i, or 0 when out of range.
func (v *View) PageOfLine(i int) int {
	if i < 0 || i >= len(v.Lines) {
		return 0
	}
	return v.Lines[i].Page
}

// Fingerprint returns a stable digest of the view's content, used for
// provenance on extraction records. Identical views produce identical
// fingerprints.
func (v *View) Fingerprint() string {
	h := sha256.New()
	for _, l := range v.Lines {
		fmt.Fprintf(h, "%d|%s\n", l.Page, l.Text)
	}
	for _, t := range v.Tables {
		fmt.Fprintf(h, "T%d|%s\n", t.Page, strings.Join(flatten(t.Cells), "|"))
	}
	return hex.EncodeToString(h.Sum(nil)[:8])
}

func flatten(cells [][]string) []string {
	var out []string
	for _, row := range cells {
		out = append(out, row...)
	}
	return out
}
