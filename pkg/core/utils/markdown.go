package utils

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/text"
)

// CleanMarkdown strips an outer code fence (with or without a language
// tag) so the reply body renders as plain markdown.
func CleanMarkdown(input string) string {
	cleaned := strings.TrimSpace(input)
	if !strings.HasPrefix(cleaned, "```") || !strings.HasSuffix(cleaned, "```") {
		return cleaned
	}

	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimPrefix(cleaned, "```")
	// Drop the language tag on the opening fence line, if any.
	if idx := strings.IndexByte(cleaned, '\n'); idx >= 0 {
		firstLine := strings.TrimSpace(cleaned[:idx])
		if firstLine != "" && !strings.ContainsAny(firstLine, " \t") {
			cleaned = cleaned[idx+1:]
		}
	}
	return strings.TrimSpace(cleaned)
}

// ValidateMarkdown reports whether Goldmark can parse the input. Goldmark
// is permissive, so this catches only structural breakage.
func ValidateMarkdown(input string) bool {
	parser := goldmark.DefaultParser()
	reader := text.NewReader([]byte(input))
	doc := parser.Parse(reader)
	return doc != nil
}
