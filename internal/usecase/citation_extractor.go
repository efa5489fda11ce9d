package usecase

import (
	"book-rag/internal/domain"
)

const (
	// snippetLimit bounds a citation snippet in characters.
	snippetLimit = 200
	// snippetMinBreak is the earliest position at which a snippet may be
	// cut at a sentence boundary.
	snippetMinBreak = 100
)

// CitationExtractor derives a bounded, readable snippet per retrieved chunk
// for display.
type CitationExtractor struct{}

// NewCitationExtractor creates a CitationExtractor.
func NewCitationExtractor() *CitationExtractor {
	return &CitationExtractor{}
}

// Extract produces one citation per input chunk, in the same order.
func (e *CitationExtractor) Extract(chunks []domain.RetrievedChunk) []domain.Citation {
	citations := make([]domain.Citation, 0, len(chunks))

	for _, chunk := range chunks {
		sourceFile := chunk.SourceFile
		if sourceFile == "" {
			sourceFile = "Unknown"
		}
		title := chunk.Title
		if title == "" {
			title = "Untitled"
		}

		citations = append(citations, domain.Citation{
			SourceFile:     sourceFile,
			Title:          title,
			ContentSnippet: snippet(chunk.Content),
		})
	}

	return citations
}

// snippet keeps content up to snippetLimit characters verbatim. Longer
// content is cut at the last period within the limit when that period falls
// at or after snippetMinBreak; otherwise it is truncated at the limit with
// an ellipsis marker.
func snippet(content string) string {
	runes := []rune(content)
	if len(runes) <= snippetLimit {
		return content
	}

	head := runes[:snippetLimit]
	for i := len(head) - 1; i >= snippetMinBreak; i-- {
		if head[i] == '.' {
			return string(head[:i+1])
		}
	}
	return string(head) + "..."
}

// TruncateSnippet bounds arbitrary text to the snippet limit, appending an
// ellipsis when cut. Used for the selected-text citation.
func TruncateSnippet(text string) string {
	runes := []rune(text)
	if len(runes) <= snippetLimit {
		return text
	}
	return string(runes[:snippetLimit]) + "..."
}
