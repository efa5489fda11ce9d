package domain

import (
	"regexp"
	"strings"
)

// UntitledDocument is the title fallback for files without a level-1 heading.
const UntitledDocument = "Untitled Document"

var (
	h1Pattern     = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	headerPattern = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)
)

// ExtractTitle returns the first level-1 heading of markdown content, or
// UntitledDocument when none exists.
func ExtractTitle(content string) string {
	if m := h1Pattern.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	return UntitledDocument
}

// ExtractHeaders returns the text of every heading (h1 through h6) in order
// of appearance.
func ExtractHeaders(content string) []string {
	matches := headerPattern.FindAllStringSubmatch(content, -1)

	var headers []string
	for _, m := range matches {
		headers = append(headers, strings.TrimSpace(m[2]))
	}
	return headers
}

// IsMarkdownFile reports whether path has a recognized corpus extension.
func IsMarkdownFile(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".markdown")
}
