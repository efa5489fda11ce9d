package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"book-rag/internal/domain"
)

// AnswerUsecase is the one-shot query orchestrator. Full-corpus queries run
// retrieve, assemble, generate, citations; selected-text queries call the
// generator directly on the excerpt. Any step failure aborts the query with
// no partial answer.
type AnswerUsecase interface {
	Query(ctx context.Context, query string) (*domain.QueryResult, error)
	QuerySelection(ctx context.Context, selectedText, question string) (*domain.QueryResult, error)
}

type answerUsecase struct {
	retriever     Retriever
	assembler     *ContextAssembler
	citations     *CitationExtractor
	generator     domain.AnswerGenerator
	grounding     GroundingValidator
	retrieveLimit int
	logger        *slog.Logger
}

// NewAnswerUsecase wires the components of the query pipeline.
func NewAnswerUsecase(
	retriever Retriever,
	assembler *ContextAssembler,
	citations *CitationExtractor,
	generator domain.AnswerGenerator,
	grounding GroundingValidator,
	retrieveLimit int,
	logger *slog.Logger,
) AnswerUsecase {
	if retrieveLimit <= 0 {
		retrieveLimit = DefaultRetrieveLimit
	}
	return &answerUsecase{
		retriever:     retriever,
		assembler:     assembler,
		citations:     citations,
		generator:     generator,
		grounding:     grounding,
		retrieveLimit: retrieveLimit,
		logger:        logger,
	}
}

func (u *answerUsecase) Query(ctx context.Context, query string) (*domain.QueryResult, error) {
	if err := domain.ValidateChatMessage(query); err != nil {
		return nil, err
	}

	chunks, err := u.retriever.Retrieve(ctx, query, u.retrieveLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve context: %w", err)
	}

	// An empty retrieval still reaches the generator: the grounding
	// instruction makes it answer with the refusal phrase.
	contextBlock := u.assembler.Assemble(chunks)

	answer, err := u.generator.Generate(ctx, query, contextBlock)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	if !u.grounding.Validate(answer, contextBlock) {
		u.logger.Warn("grounding_check_rejected", "query_len", len(query))
	}

	return &domain.QueryResult{
		Answer:         answer,
		Citations:      u.citations.Extract(chunks),
		RetrievedCount: len(chunks),
	}, nil
}

func (u *answerUsecase) QuerySelection(ctx context.Context, selectedText, question string) (*domain.QueryResult, error) {
	if err := domain.ValidateSelectedText(selectedText); err != nil {
		return nil, err
	}
	if err := domain.ValidateChatMessage(question); err != nil {
		return nil, err
	}

	answer, err := u.generator.GenerateFromSelection(ctx, selectedText, question)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer from selection: %w", err)
	}

	return &domain.QueryResult{
		Answer: answer,
		Citations: []domain.Citation{
			{
				SourceFile:     "user_provided_text",
				Title:          "Selected Text",
				ContentSnippet: TruncateSnippet(selectedText),
			},
		},
	}, nil
}
