package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// =============================================================================
// NUMBER FORMAT ERRORS
// =============================================================================

// NumberFormatError reports a token that could not be parsed as a number or
// percentage. Recoverable: extractors try alternative candidates before
// surfacing a warning.
type NumberFormatError struct {
	Raw    string
	Reason string
}

func (e *NumberFormatError) Error() string {
	return fmt.Sprintf("cannot parse %q: %s", e.Raw, e.Reason)
}

func formatErr(raw, reason string) error {
	return &NumberFormatError{Raw: raw, Reason: reason}
}

// =============================================================================
// AMOUNT PARSING - Locale-aware currency/number tokens
// =============================================================================

var blankMarkers = map[string]bool{
	"": true, "—": true, "–": true, "-": true, "n/a": true, "na": true, "nan": true,
}

var currencyTokens = []string{"chf", "usd", "eur", "$", "€", "£"}

// ParseAmount normalizes a raw token into a float64. Handled formats:
// comma, space (incl. NBSP) and apostrophe thousands separators, decimal
// comma vs decimal point, leading/trailing currency symbols or codes,
// trailing percent signs, and parenthesized negatives. Multi-token values
// split across adjacent cells must be pre-joined by the caller (see
// JoinNumericTokens).
func ParseAmount(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if blankMarkers[strings.ToLower(s)] {
		return 0, formatErr(raw, "blank value")
	}

	// Normalize exotic whitespace and apostrophes.
	s = strings.NewReplacer(" ", " ", " ", " ", "’", "'").Replace(s)

	// Parenthesized negative.
	neg := false
	if strings.Contains(s, "(") && strings.Contains(s, ")") {
		neg = true
		s = strings.NewReplacer("(", "", ")", "").Replace(s)
	}

	s = stripCurrency(strings.TrimSpace(s))
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	s = strings.TrimSpace(s)

	// Explicit sign.
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "−") {
		neg = true
		s = strings.TrimLeft(s, "-−")
		s = strings.TrimSpace(s)
	}

	if s == "" {
		return 0, formatErr(raw, "no digits")
	}
	for _, r := range s {
		if !strings.ContainsRune("0123456789 ',.", r) {
			return 0, formatErr(raw, fmt.Sprintf("unexpected character %q", r))
		}
	}

	// Space and apostrophe are always thousands separators.
	s = strings.NewReplacer(" ", "", "'", "").Replace(s)

	// Resolve comma vs point.
	switch {
	case strings.Contains(s, ".") && strings.Contains(s, ","):
		// The rightmost separator is the decimal mark.
		if strings.LastIndex(s, ".") > strings.LastIndex(s, ",") {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		}
	case strings.Contains(s, ","):
		if isGroupedThousands(s, ',') {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ",", ".")
		}
	case strings.Count(s, ".") > 1:
		// Repeated points can only be dot-grouped thousands.
		if isGroupedThousands(s, '.') {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, formatErr(raw, "not a number")
	}
	if neg {
		v = -v
	}
	return v, nil
}

// ParsePercent parses a percentage token, stripping a trailing "%", and
// fails (never clamps) when the result falls outside [0,100].
func ParsePercent(raw string) (float64, error) {
	v, err := ParseAmount(raw)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > 100 {
		return 0, formatErr(raw, fmt.Sprintf("percentage %v outside [0,100]", v))
	}
	return v, nil
}

// stripCurrency removes leading/trailing currency symbols and codes.
func stripCurrency(s string) string {
	for {
		trimmed := strings.TrimSpace(s)
		lower := strings.ToLower(trimmed)
		changed := false
		for _, tok := range currencyTokens {
			if strings.HasPrefix(lower, tok) {
				trimmed = trimmed[len(tok):]
				changed = true
				break
			}
			if strings.HasSuffix(lower, tok) {
				trimmed = trimmed[:len(trimmed)-len(tok)]
				changed = true
				break
			}
		}
		s = trimmed
		if !changed {
			return strings.TrimSpace(s)
		}
	}
}

// isGroupedThousands reports whether every occurrence of sep splits the
// string into valid 3-digit groups ("1,234,567"). A single separator with a
// non-3-digit tail ("27,5") is a decimal mark instead.
func isGroupedThousands(s string, sep rune) bool {
	parts := strings.Split(s, string(sep))
	if len(parts) < 2 || len(parts[0]) == 0 || len(parts[0]) > 3 {
		return false
	}
	for _, p := range parts[1:] {
		if len(p) != 3 {
			return false
		}
	}
	return true
}

// =============================================================================
// TOKEN RECONSTRUCTION - Space-thousands split across tokens
// =============================================================================

var allDigits = regexp.MustCompile(`^\d+$`)

// JoinNumericTokens reassembles numbers that a text decoder split at
// thousands boundaries. A value starts with a 1-3 digit token and absorbs
// every directly following exact-3-digit token:
//
//	["13","432","13","083"] → ["13432","13083"]
//	["432","13","083"]      → ["432","13083"]
//
// Non-digit tokens terminate the current value and are skipped.
func JoinNumericTokens(tokens []string) []string {
	var values []string
	i := 0
	for i < len(tokens) {
		tok := tokens[i]
		if !allDigits.MatchString(tok) {
			i++
			continue
		}
		if len(tok) > 3 {
			// Already a complete run of digits.
			values = append(values, tok)
			i++
			continue
		}
		value := tok
		j := i + 1
		for j < len(tokens) && len(tokens[j]) == 3 && allDigits.MatchString(tokens[j]) {
			value += tokens[j]
			j++
		}
		values = append(values, value)
		i = j
	}
	return values
}

// =============================================================================
// NUMERIC EVIDENCE - Shape checks used by the locator and extractors
// =============================================================================

// numericEvidence matches amount-shaped or percent-shaped tokens: grouped
// thousands, percentages, or runs of four or more digits. Bare 1-3 digit
// numbers (table-of-contents page numbers) deliberately do not match.
var numericEvidence = regexp.MustCompile(`\d{1,3}(?:[ '’,.]\d{3})+|\d+(?:[.,]\d+)?\s*%|\d{4,}`)

// HasNumericEvidence reports whether a line of text contains at least one
// numeric or percentage shaped token.
func HasNumericEvidence(text string) bool {
	return numericEvidence.MatchString(text)
}

// percentShaped matches a standalone percentage token.
var percentShaped = regexp.MustCompile(`^\d+(?:[.,]\d+)?\s*%?$`)

// =============================================================================
// FORMATTING - Round-trip rendering for supported locale styles
// =============================================================================

// SeparatorStyle selects one of the accepted textual renderings of a number.
type SeparatorStyle int

const (
	StyleCommaThousands SeparatorStyle = iota
	StyleSpaceThousands
	StyleApostropheThousands
	StyleDecimalComma // space thousands with a decimal comma
)

// FormatAmount renders a normalized value in the given style; parsing the
// result with ParseAmount yields the original value.
func FormatAmount(v float64, style SeparatorStyle) string {
	neg := v < 0
	if neg {
		v = -v
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	intPart, fracPart := s, ""
	if idx := strings.Index(s, "."); idx >= 0 {
		intPart, fracPart = s[:idx], s[idx+1:]
	}

	sep := ","
	decimal := "."
	switch style {
	case StyleSpaceThousands:
		sep = " "
	case StyleApostropheThousands:
		sep = "'"
	case StyleDecimalComma:
		sep, decimal = " ", ","
	}

	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)

	out := strings.Join(groups, sep)
	if fracPart != "" {
		out += decimal + fracPart
	}
	if neg {
		out = "-" + out
	}
	return out
}
