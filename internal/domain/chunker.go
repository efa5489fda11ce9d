package domain

import (
	"strings"
	"unicode/utf8"
)

const (
	// DefaultMaxChunkSize is the maximum chunk length in characters.
	DefaultMaxChunkSize = 1000
	// DefaultChunkOverlap is the overlap budget in characters. The overlap
	// carried between chunks is the last overlap/5 words of the previous
	// chunk, approximating the budget via average word length.
	DefaultChunkOverlap = 100
)

// Chunker splits raw document text into overlapping, size-bounded chunks.
// It is a pure function of its input: identical text and parameters always
// produce the identical chunk sequence.
type Chunker struct {
	MaxChunkSize int
	OverlapSize  int
}

// NewChunker creates a Chunker with the default size and overlap budget.
func NewChunker() *Chunker {
	return &Chunker{
		MaxChunkSize: DefaultMaxChunkSize,
		OverlapSize:  DefaultChunkOverlap,
	}
}

// Split chunks text on paragraph boundaries, seeding each new chunk with an
// overlap drawn from the tail of the previous one. Chunks still exceeding the
// maximum afterwards are re-split at sentence boundaries without overlap.
// A single paragraph or sentence longer than the maximum is emitted as one
// oversized chunk rather than being split mid-sentence.
func (c *Chunker) Split(text string) []string {
	paragraphs := strings.Split(normalizeNewlines(text), "\n\n")

	var chunks []string
	var current string

	for _, paragraph := range paragraphs {
		if utf8.RuneCountInString(current)+utf8.RuneCountInString(paragraph) > c.MaxChunkSize && current != "" {
			chunks = append(chunks, strings.TrimSpace(current))

			if c.OverlapSize > 0 {
				words := strings.Fields(current)
				carry := c.OverlapSize / 5
				if carry > len(words) {
					carry = len(words)
				}
				current = strings.Join(words[len(words)-carry:], " ") + " " + paragraph
			} else {
				current = paragraph
			}
			continue
		}

		if current != "" {
			current += "\n\n" + paragraph
		} else {
			current = paragraph
		}
	}

	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}

	var final []string
	for _, chunk := range chunks {
		if utf8.RuneCountInString(chunk) <= c.MaxChunkSize {
			if strings.TrimSpace(chunk) != "" {
				final = append(final, chunk)
			}
			continue
		}
		final = append(final, c.splitBySentences(chunk)...)
	}

	return final
}

// splitBySentences re-accumulates sentences under the greedy size rule,
// without an overlap. An unsplittable oversized sentence passes through.
func (c *Chunker) splitBySentences(chunk string) []string {
	sentences := splitIntoSentences(chunk)

	var result []string
	var current string

	for _, sentence := range sentences {
		if utf8.RuneCountInString(current)+utf8.RuneCountInString(sentence) > c.MaxChunkSize && current != "" {
			result = append(result, strings.TrimSpace(current))
			current = sentence
			continue
		}

		if current != "" {
			current += " " + sentence
		} else {
			current = sentence
		}
	}

	if strings.TrimSpace(current) != "" {
		result = append(result, strings.TrimSpace(current))
	}

	return result
}

// splitIntoSentences splits at '.', '!' or '?' followed by whitespace. The
// terminator stays with the sentence; the separating whitespace is dropped.
func splitIntoSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		current.WriteRune(runes[i])

		if runes[i] != '.' && runes[i] != '!' && runes[i] != '?' {
			continue
		}
		if i+1 >= len(runes) || !isSpace(runes[i+1]) {
			continue
		}

		sentences = append(sentences, current.String())
		current.Reset()
		for i+1 < len(runes) && isSpace(runes[i+1]) {
			i++
		}
	}

	if trimmed := strings.TrimSpace(current.String()); trimmed != "" {
		sentences = append(sentences, trimmed)
	}

	return sentences
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}

func normalizeNewlines(text string) string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(normalized, "\r", "\n")
}
