package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"book-rag/internal/domain"
	"book-rag/internal/infra/logger"
)

// ChatResult is the response of one chat turn, including the session the
// caller should use to continue the conversation.
type ChatResult struct {
	Response  string
	SessionID string
	Citations []domain.Citation
}

// ChatUsecase manages chat sessions, persists message history and delegates
// answering to the query orchestrator.
type ChatUsecase interface {
	Chat(ctx context.Context, message, sessionID string) (*ChatResult, error)
	ChatSelection(ctx context.Context, selectedText, question, sessionID string) (*ChatResult, error)

	// History returns the messages of an existing session in order.
	// Returns domain.ErrNotFound when the session does not exist.
	History(ctx context.Context, sessionID string) ([]domain.ChatMessage, error)
}

type chatUsecase struct {
	sessions      domain.SessionRepository
	answer        AnswerUsecase
	contextLogger *logger.ContextLogger
}

// NewChatUsecase creates a ChatUsecase.
func NewChatUsecase(sessions domain.SessionRepository, answer AnswerUsecase, contextLogger *logger.ContextLogger) ChatUsecase {
	return &chatUsecase{
		sessions:      sessions,
		answer:        answer,
		contextLogger: contextLogger,
	}
}

func (u *chatUsecase) Chat(ctx context.Context, message, sessionID string) (*ChatResult, error) {
	if err := domain.ValidateChatMessage(message); err != nil {
		return nil, err
	}

	session, err := u.getOrCreateSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithSessionID(ctx, session.ID.String())

	if err := u.saveMessage(ctx, session.ID, "user", message, nil); err != nil {
		return nil, err
	}

	result, err := u.answer.Query(ctx, message)
	if err != nil {
		return nil, err
	}

	if err := u.saveMessage(ctx, session.ID, "assistant", result.Answer, result.Citations); err != nil {
		return nil, err
	}

	u.contextLogger.WithContext(ctx).Info("chat_completed", "retrieved", result.RetrievedCount)

	return &ChatResult{
		Response:  result.Answer,
		SessionID: session.ID.String(),
		Citations: result.Citations,
	}, nil
}

func (u *chatUsecase) ChatSelection(ctx context.Context, selectedText, question, sessionID string) (*ChatResult, error) {
	if err := domain.ValidateSelectedText(selectedText); err != nil {
		return nil, err
	}
	if err := domain.ValidateChatMessage(question); err != nil {
		return nil, err
	}

	session, err := u.getOrCreateSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithSessionID(ctx, session.ID.String())

	userContent := fmt.Sprintf("Selected text: %s\nQuestion: %s", selectedText, question)
	if err := u.saveMessage(ctx, session.ID, "user", userContent, nil); err != nil {
		return nil, err
	}

	result, err := u.answer.QuerySelection(ctx, selectedText, question)
	if err != nil {
		return nil, err
	}

	if err := u.saveMessage(ctx, session.ID, "assistant", result.Answer, result.Citations); err != nil {
		return nil, err
	}

	u.contextLogger.WithContext(ctx).Info("selection_chat_completed")

	return &ChatResult{
		Response:  result.Answer,
		SessionID: session.ID.String(),
		Citations: result.Citations,
	}, nil
}

func (u *chatUsecase) History(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	if err := domain.ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	if sessionID == "" {
		return nil, domain.NewValidationError("session_id", "must not be empty")
	}

	id, _ := uuid.Parse(sessionID)
	session, err := u.sessions.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if session == nil {
		return nil, domain.ErrNotFound
	}

	messages, err := u.sessions.GetHistory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return messages, nil
}

func (u *chatUsecase) getOrCreateSession(ctx context.Context, sessionID string) (*domain.ChatSession, error) {
	if err := domain.ValidateSessionID(sessionID); err != nil {
		return nil, err
	}

	if sessionID != "" {
		id, _ := uuid.Parse(sessionID)
		session, err := u.sessions.GetSession(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to look up session: %w", err)
		}
		if session != nil {
			return session, nil
		}
	}

	now := time.Now()
	session := &domain.ChatSession{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	u.contextLogger.WithContext(logger.WithSessionID(ctx, session.ID.String())).Debug("session_created")
	return session, nil
}

func (u *chatUsecase) saveMessage(ctx context.Context, sessionID uuid.UUID, role, content string, citations []domain.Citation) error {
	message := &domain.ChatMessage{
		ID:        uuid.New(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Citations: citations,
		CreatedAt: time.Now(),
	}
	if err := u.sessions.SaveMessage(ctx, message); err != nil {
		return fmt.Errorf("failed to save %s message: %w", role, err)
	}
	return nil
}
