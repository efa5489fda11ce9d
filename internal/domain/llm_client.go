package domain

import "context"

// Refusal phrases are part of the generation contract and must match
// verbatim: the system instruction mandates them when the supplied context
// is insufficient to answer.
const (
	CorpusRefusalPhrase    = "I cannot answer this question based on the provided book content."
	SelectionRefusalPhrase = "I cannot answer this question based on the provided text."
)

// AnswerGenerator produces a grounded answer under a strict instruction
// forbidding knowledge outside the supplied context. Failures are fatal to
// the current request; no partial answer is ever returned.
type AnswerGenerator interface {
	// Generate answers a question against assembled corpus context.
	Generate(ctx context.Context, question, contextBlock string) (string, error)

	// GenerateFromSelection answers a question against a user-supplied
	// excerpt.
	GenerateFromSelection(ctx context.Context, selectedText, question string) (string, error)
}
