package usecase

import (
	"fmt"
	"strings"

	"book-rag/internal/domain"
)

// ContextAssembler renders retrieved chunks into a single prompt context,
// annotated with provenance. Chunks are rendered in the order received,
// which is assumed to already be ranked best-first. Overlapping text from
// adjacent chunks of the same document is not deduplicated.
type ContextAssembler struct{}

// NewContextAssembler creates a ContextAssembler.
func NewContextAssembler() *ContextAssembler {
	return &ContextAssembler{}
}

// Assemble produces one text block with a fixed delimiter line between
// chunks. An empty input yields an empty string.
func (a *ContextAssembler) Assemble(chunks []domain.RetrievedChunk) string {
	parts := make([]string, 0, len(chunks))

	for _, chunk := range chunks {
		sourceFile := chunk.SourceFile
		if sourceFile == "" {
			sourceFile = "Unknown"
		}
		title := chunk.Title
		if title == "" {
			title = "Untitled"
		}

		parts = append(parts, fmt.Sprintf("Source: %s | Title: %s\nContent: %s\n---\n", sourceFile, title, chunk.Content))
	}

	return strings.Join(parts, "\n")
}
