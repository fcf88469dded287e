package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pension_extraction/pkg/core/document"
	"pension_extraction/pkg/core/utils"
)

// =============================================================================
// INTERCHANGE LOADER - DocumentView from decoder JSON
// =============================================================================

// FromJSON decodes a DocumentView from decoder interchange JSON. Decoder
// output is occasionally sloppy (trailing commas, unquoted keys), so a
// repair pass runs before giving up.
func FromJSON(data []byte) (*document.View, error) {
	var view document.View
	if err := utils.LenientUnmarshal(data, &view); err != nil {
		return nil, fmt.Errorf("interchange decode: %w", err)
	}
	if err := view.Validate(); err != nil {
		return nil, err
	}
	return &view, nil
}

// LoadFile reads one report rendition from disk, dispatching on extension:
// .html/.htm for HTML renditions, .json for decoder interchange files.
func LoadFile(path string) (*document.View, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".html", ".htm":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return FromHTML(f)
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return FromJSON(data)
	default:
		return nil, fmt.Errorf("unsupported rendition format %q (want .html or .json)", ext)
	}
}
