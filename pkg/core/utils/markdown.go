package utils

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/text"
)

// ValidateMarkdown checks that a rendered review report parses as markdown.
// Goldmark is permissive, so this catches only gross construction errors,
// but it keeps report templates honest.
func ValidateMarkdown(input string) bool {
	parser := goldmark.DefaultParser()
	reader := text.NewReader([]byte(input))
	return parser.Parse(reader) != nil
}
